package service_test

import (
	"context"
	"strings"
	"testing"

	"friendchat/model"
	"friendchat/service"
	"friendchat/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_SendAndHistory(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewMessageService(st)
	alice := testutil.CreateUser(t, st, "alice")
	bob := testutil.CreateUser(t, st, "bob")

	msg, err := svc.SendMessage(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.False(t, msg.Read)
	assert.False(t, msg.CreatedAt.IsZero())

	history, err := svc.GetHistory(ctx, bob.ID, alice.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)

	empty, err := svc.GetHistory(ctx, alice.ID, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMessage_Validation(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewMessageService(st)
	alice := testutil.CreateUser(t, st, "alice")
	bob := testutil.CreateUser(t, st, "bob")

	cases := []struct {
		name     string
		receiver uuid.UUID
		content  string
	}{
		{"空内容", bob.ID, "   "},
		{"超长内容", bob.ID, strings.Repeat("é", service.MaxMessageRunes+1)},
		{"发给自己", alice.ID, "hi"},
		{"缺少接收方", uuid.Nil, "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, alice.ID, tc.receiver, tc.content)
			var svcErr *service.Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, service.KindValidation, svcErr.Kind)
		})
	}

	// 按字符计数：4000 个多字节字符可以发送
	_, err := svc.SendMessage(ctx, alice.ID, bob.ID, strings.Repeat("é", service.MaxMessageRunes))
	assert.NoError(t, err)

	_, err = svc.SendMessage(ctx, alice.ID, uuid.New(), "hi")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestMessage_StorageFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewMessageService(st)
	alice := testutil.CreateUser(t, st, "alice")
	bob := testutil.CreateUser(t, st, "bob")

	require.NoError(t, st.DB().Migrator().DropTable(&model.Message{}))

	_, err := svc.SendMessage(ctx, alice.ID, bob.ID, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrPersistence)
}
