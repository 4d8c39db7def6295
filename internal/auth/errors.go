package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned when no signing secret was provisioned.
	ErrMissingSecret = errors.New("signing secret is empty")
	// ErrWeakSecret is returned when the secret is shorter than MinSecretLength.
	ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	// ErrInvalidExpiration is returned for a non-positive token lifetime.
	ErrInvalidExpiration = errors.New("token expiration must be positive")
)

// ConfigurationError reports a TokenService that cannot be constructed.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("token configuration: %v", e.Err)
	}
	return fmt.Sprintf("token configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TokenErrorKind classifies why a token was rejected.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenSignatureInvalid
	TokenExpired
	TokenClaimsInvalid
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenSignatureInvalid:
		return "signature_invalid"
	case TokenExpired:
		return "expired"
	case TokenClaimsInvalid:
		return "claims_invalid"
	default:
		return "unknown"
	}
}

// TokenError is the per-call failure returned by ParseClaims and ExtractUserID.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("invalid token (%s): %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// IsTokenError reports whether err is, or wraps, a *TokenError.
func IsTokenError(err error) bool {
	var tokenErr *TokenError
	return errors.As(err, &tokenErr)
}

// classifyParseError maps jwt parser errors onto a TokenError kind.
func classifyParseError(err error) *TokenError {
	kind := TokenClaimsInvalid
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		kind = TokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = TokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = TokenExpired
	}
	return &TokenError{Kind: kind, Err: err}
}
