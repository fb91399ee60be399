package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/promptpilot/promptpilot/internal/errs"
)

const (
	// AuthUserKey is the gin context key holding the authenticated user id.
	AuthUserKey = "user_id"
	// AuthEmailKey is the gin context key holding the authenticated email.
	AuthEmailKey = "user_email"
)

var jwtSecret string

// Claims represents session token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SetJWTSecret sets the signing secret for session tokens
func SetJWTSecret(secret string) {
	jwtSecret = secret
}

// GenerateToken issues a signed session token for a user. Validity is
// wholly determined by the signature and embedded expiry; there is no
// revocation list, so a token stays valid until it expires.
func GenerateToken(userID, email string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateToken verifies a session token's signature and expiry.
// Expiry is reported as errs.ErrTokenExpired, every other defect as
// errs.ErrTokenInvalid, so callers can surface distinct messages.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrTokenInvalid
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.ErrTokenExpired
		}
		return nil, errs.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errs.ErrTokenInvalid
	}

	return claims, nil
}

// JWTAuth middleware validates the bearer session token
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "TOKEN_INVALID", "Missing Authorization header. Expected: Bearer <token>")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "TOKEN_INVALID", "Malformed Authorization header. Expected: Bearer <token>")
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, errs.ErrTokenExpired) {
				abortUnauthorized(c, "TOKEN_EXPIRED", "Token has expired. Please sign in again.")
				return
			}
			abortUnauthorized(c, "TOKEN_INVALID", "Invalid token.")
			return
		}

		c.Set(AuthUserKey, claims.UserID)
		c.Set(AuthEmailKey, claims.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
	c.Abort()
}

// GetUserID retrieves the authenticated user id from the context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(AuthUserKey)
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
