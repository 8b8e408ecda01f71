package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates bearer tokens issued by the external auth
// subsystem and extracts the trusted user id. Token issuance is not
// this service's concern.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier over a shared HMAC secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// Verify checks a "Bearer <token>" credential and returns the user id.
func (v *JWTVerifier) Verify(_ context.Context, header string) (int, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, errors.New("invalid authorization header")
	}

	var c claims
	token, err := jwt.ParseWithClaims(parts[1], &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid || c.UserID == 0 {
		return 0, errors.New("invalid token")
	}
	return c.UserID, nil
}

// AuthMiddleware validates the Authorization header and stores the
// authenticated user id in the request context.
func AuthMiddleware(verifier *JWTVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		userID, err := verifier.Verify(c.Request.Context(), header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
