package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/bowmeow/session-token/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID    string
	ExpiresAt time.Time
}

// RejectionRecorder receives the reason a bearer token was refused.
type RejectionRecorder interface {
	RecordTokenRejected(kind string)
}

// AuthMiddleware validates bearer tokens and stores the principal.
type AuthMiddleware struct {
	tokens   *TokenService
	recorder RejectionRecorder
}

// NewAuthMiddleware constructs middleware. recorder may be nil.
func NewAuthMiddleware(tokens *TokenService, recorder RejectionRecorder) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, recorder: recorder}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseClaims(strings.TrimSpace(parts[1]))
	if err != nil {
		m.reject(err)
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) reject(err error) {
	if m.recorder == nil {
		return
	}
	kind := "unknown"
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		kind = tokenErr.Kind.String()
	}
	m.recorder.RecordTokenRejected(kind)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
