package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	InitAuth("unit-secret")
	userID := uuid.New()

	token, err := GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	got, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	expired, err := GenerateToken(userID, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err, "ttl 为负数时签发的是已过期 token")

	// 其它密钥签发的 token
	InitAuth("other-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
	InitAuth("unit-secret")

	// 不接受 none 算法
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: userID}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateToken(unsigned)
	assert.Error(t, err)

	// 缺少 user_id
	empty, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("unit-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(empty)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitAuth("unit-secret")
	userID := uuid.New()

	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	token, err := GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"有效 token", "Bearer " + token, http.StatusOK},
		{"缺少 header", "", http.StatusUnauthorized},
		{"格式错误", "Token " + token, http.StatusUnauthorized},
		{"无效 token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			}
		})
	}
}
