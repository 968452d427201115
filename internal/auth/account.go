package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/your-org/fieldsight/internal/models"
)

const (
	accountContextKey = "account"
	serviceKeyHeader  = "X-Service-Key"
)

// Claims carried in a registered account's bearer token. The identity
// provider authenticates the user; this service only verifies the token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken mints a registered-account token.
func IssueToken(secret string, ttl time.Duration, accountID, email string) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the registered account.
func ParseToken(secret, tokenString string) (models.Account, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Account{}, fmt.Errorf("invalid token")
	}
	return models.NewRegisteredAccount(claims.Subject, claims.Email), nil
}

// AccountMiddleware resolves the caller's account. Requests without a bearer
// token run as ephemeral guests; a present-but-invalid token is rejected.
func AccountMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(accountContextKey, models.NewGuestAccount())
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		account, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(accountContextKey, account)
		c.Next()
	}
}

// AccountFrom returns the account resolved by AccountMiddleware.
func AccountFrom(c *gin.Context) models.Account {
	if v, ok := c.Get(accountContextKey); ok {
		if account, ok := v.(models.Account); ok {
			return account
		}
	}
	return models.NewGuestAccount()
}

// RequireRegistered gates map/catalog endpoints: guests are denied.
func RequireRegistered() gin.HandlerFunc {
	return func(c *gin.Context) {
		if AccountFrom(c).IsGuest() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "registered account required"})
			return
		}
		c.Next()
	}
}

// ServiceKeyMiddleware protects service-to-service endpoints (token minting)
// with a shared key. If serviceKey is empty, the check is disabled.
func ServiceKeyMiddleware(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(serviceKeyHeader)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing service key"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(serviceKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid service key"})
			return
		}

		c.Next()
	}
}
