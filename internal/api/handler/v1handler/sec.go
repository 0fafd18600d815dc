package v1handler

import (
	"fmt"
	"strings"

	"checkin/internal/config"
	"checkin/pkg/logger"
	"checkin/pkg/serrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SecOptions configures moderator authentication.
type SecOptions struct {
	// PublicKey is the PEM-encoded RSA public key tokens are verified
	// against.
	PublicKey string
}

// NewSecOptions constructs a SecOptions value from the provided application
// config.
func NewSecOptions(cfg *config.Config) *SecOptions {
	return &SecOptions{
		PublicKey: cfg.JWT.PublicKey,
	}
}

// moderatorKey is the gin context key holding the authenticated moderator's
// subject.
const moderatorKey = "moderator"

// newAuthMiddleware verifies RS256 bearer tokens and attaches the moderator
// subject to the request context and log fields.
func newAuthMiddleware(sec *SecOptions) (gin.HandlerFunc, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(sec.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			respondError(c, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()

			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims,
			func(*jwt.Token) (any, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if err != nil || !token.Valid {
			respondError(c, serrors.With(serrors.ErrUnauthorized, "invalid bearer token"))
			c.Abort()

			return
		}

		c.Set(moderatorKey, claims.Subject)
		c.Request = c.Request.WithContext(
			logger.WithFields(c.Request.Context(), zap.String("moderator", claims.Subject)))

		c.Next()
	}, nil
}

// GetModerator returns the authenticated moderator subject, or an empty
// string on unauthenticated routes.
func GetModerator(c *gin.Context) string {
	return c.GetString(moderatorKey)
}
