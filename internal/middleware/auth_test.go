package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/promptpilot/promptpilot/internal/errs"
)

func init() {
	SetJWTSecret("test-secret")
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "user@example.com", time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-1", "user@example.com", -time.Minute)
	assert.NoError(t, err)

	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestTamperedToken(t *testing.T) {
	token, err := GenerateToken("user-1", "user@example.com", time.Hour)
	assert.NoError(t, err)

	// Flip a byte in the signature segment.
	altered := token[:len(token)-2] + "xx"

	_, err = ValidateToken(altered)
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestValidateGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	valid, err := GenerateToken("user-1", "user@example.com", time.Hour)
	assert.NoError(t, err)

	expired, err := GenerateToken("user-1", "user@example.com", -time.Minute)
	assert.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Missing authorization header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_INVALID",
		},
		{
			name:           "Malformed header",
			header:         "NotBearer " + valid,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_INVALID",
		},
		{
			name:           "Expired token",
			header:         "Bearer " + expired,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_EXPIRED",
		},
		{
			name:           "Valid token",
			header:         "Bearer " + valid,
			expectedStatus: http.StatusOK,
		},
	}

	router := gin.New()
	router.GET("/test", JWTAuth(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, "user-1", userID)
		c.Status(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
			}
		})
	}
}
