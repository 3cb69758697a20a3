package service_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"friendchat/service"
	"friendchat/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userTagPattern = regexp.MustCompile(`^#[0-9A-F]{4}$`)

func TestUser_CreateAssignsTag(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewUserService(st)

	user, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "")
	require.NoError(t, err)
	assert.Regexp(t, userTagPattern, user.UserTag)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)

	_, err = svc.GetProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUser_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewUserService(st)

	_, err := svc.CreateUser(ctx, "Alice", "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Alice 2", "alice@example.com", "")
	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindConflict, svcErr.Kind)
	assert.Equal(t, "email_taken", svcErr.Code)

	_, err = svc.CreateUser(ctx, "", "x@example.com", "")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind)
}

func TestUser_SearchByTag(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewUserService(st)
	alice := testutil.CreateUser(t, st, "alice")
	bob := testutil.CreateUser(t, st, "bob")

	// 可以省略 # 前缀，大小写不敏感
	found, err := svc.SearchByTag(ctx, alice.ID, strings.ToLower(strings.TrimPrefix(bob.UserTag, "#")))
	require.NoError(t, err)
	assert.Equal(t, bob.ID, found.ID)

	found, err = svc.SearchByTag(ctx, alice.ID, bob.UserTag)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, found.ID)

	_, err = svc.SearchByTag(ctx, alice.ID, alice.UserTag)
	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, service.KindValidation, svcErr.Kind, "不能搜索自己")

	_, err = svc.SearchByTag(ctx, alice.ID, "#ZZZZ")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUser_GenerateUserTag(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)
	svc := service.NewUserService(st)

	for i := 0; i < 20; i++ {
		tag, err := svc.GenerateUserTag(ctx)
		require.NoError(t, err)
		assert.Regexp(t, userTagPattern, tag)
	}
}
