package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bowmeow/session-token/internal/api/dto"
	"github.com/bowmeow/session-token/internal/auth"
	"github.com/bowmeow/session-token/internal/observability"
	apperrors "github.com/bowmeow/session-token/pkg/util"
)

// TokensHandler exposes issuance and validation of session tokens.
type TokensHandler struct {
	tokens  *auth.TokenService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTokensHandler constructs handler.
func NewTokensHandler(tokens *auth.TokenService, metrics *observability.Metrics, logger *zap.Logger) *TokensHandler {
	return &TokensHandler{tokens: tokens, metrics: metrics, logger: logger}
}

// Issue handles POST /tokens.
func (h *TokensHandler) Issue(c *fiber.Ctx) error {
	var req dto.IssueTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	token, exp, err := h.tokens.IssueWithExpiry(req.UserID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	h.metrics.RecordTokenIssued()
	h.logger.Info("token issued", zap.String("user_id", req.UserID), zap.Time("expires_at", exp))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Validate handles POST /tokens/validate and only reports a verdict.
func (h *TokensHandler) Validate(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	valid := h.tokens.IsValid(req.Token)
	if valid {
		h.metrics.RecordTokenAccepted()
	} else {
		h.metrics.RecordTokenRejected("invalid")
	}
	return c.JSON(fiber.Map{"data": dto.ValidateResponse{Valid: valid}})
}

// Introspect handles POST /tokens/introspect, returning claims or the rejection reason.
func (h *TokensHandler) Introspect(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	claims, err := h.tokens.ParseClaims(req.Token)
	if err != nil {
		var tokenErr *auth.TokenError
		if errors.As(err, &tokenErr) {
			h.metrics.RecordTokenRejected(tokenErr.Kind.String())
			return apperrors.NewTokenRejected(tokenErr.Kind.String())
		}
		return apperrors.NewInternalError(err)
	}
	h.metrics.RecordTokenAccepted()

	resp := dto.ClaimsResponse{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Session handles GET /session for callers authenticated by bearer token.
func (h *TokensHandler) Session(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("missing principal")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user_id":    principal.UserID,
			"expires_at": principal.ExpiresAt,
		},
	})
}
