package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultExpiration is the token lifetime used when the secret comes from the environment.
	DefaultExpiration = time.Hour
	// MinSecretLength is the smallest HMAC key accepted (256 bits).
	MinSecretLength = 32
)

// SecretSource records where the signing secret was provisioned from.
type SecretSource int

const (
	SecretSourceExplicit SecretSource = iota
	SecretSourceEnv
)

func (s SecretSource) String() string {
	if s == SecretSourceEnv {
		return "env"
	}
	return "explicit"
}

// TokenConfig is everything a TokenService needs at construction time.
type TokenConfig struct {
	Secret     []byte
	Expiration time.Duration
	Source     SecretSource
}

// Claims describes the JWT payload. Only sub, iat and exp are populated.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HMAC-signed session tokens.
type TokenService struct {
	secret       []byte
	ttl          time.Duration
	source       SecretSource
	method       *jwt.SigningMethodHMAC
	validMethods []string
	now          func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService validates cfg and builds a service bound to its secret.
func NewTokenService(cfg TokenConfig, opts ...Option) (*TokenService, error) {
	field := "secret"
	if cfg.Source == SecretSourceEnv {
		field = "JWT_SECRET_KEY"
	}
	if len(cfg.Secret) == 0 {
		return nil, &ConfigurationError{Field: field, Err: ErrMissingSecret}
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, &ConfigurationError{Field: field, Err: ErrWeakSecret}
	}
	if cfg.Expiration <= 0 {
		return nil, &ConfigurationError{Field: "expiration", Err: ErrInvalidExpiration}
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	s := &TokenService{
		secret:       secret,
		ttl:          cfg.Expiration,
		source:       cfg.Source,
		method:       signingMethodFor(secret),
		validMethods: verifiableMethods(secret),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Expiration returns the lifetime given to issued tokens.
func (s *TokenService) Expiration() time.Duration {
	return s.ttl
}

// Algorithm returns the JWS alg used for issued tokens.
func (s *TokenService) Algorithm() string {
	return s.method.Alg()
}

// Source returns where the signing secret came from.
func (s *TokenService) Source() SecretSource {
	return s.source
}

// Issue signs a token whose subject is userID.
func (s *TokenService) Issue(userID string) (string, error) {
	token, _, err := s.IssueWithExpiry(userID)
	return token, err
}

// IssueWithExpiry signs a token for userID and returns its expiration instant.
func (s *TokenService) IssueWithExpiry(userID string) (string, time.Time, error) {
	issuedAt := s.now().Truncate(jwt.TimePrecision)
	expiresAt := issuedAt.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tokenString, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// ParseClaims verifies tokenStr and returns its claims. Every rejection is a *TokenError.
func (s *TokenService) ParseClaims(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods(s.validMethods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, &TokenError{Kind: TokenClaimsInvalid, Err: jwt.ErrTokenInvalidClaims}
	}
	return claims, nil
}

// ExtractUserID returns the subject of a valid token.
func (s *TokenService) ExtractUserID(tokenStr string) (string, error) {
	claims, err := s.ParseClaims(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether tokenStr verifies and has not expired.
func (s *TokenService) IsValid(tokenStr string) bool {
	_, err := s.ParseClaims(tokenStr)
	return err == nil
}

// signingMethodFor picks the strongest HMAC variant the key length supports.
func signingMethodFor(secret []byte) *jwt.SigningMethodHMAC {
	switch {
	case len(secret) >= 64:
		return jwt.SigningMethodHS512
	case len(secret) >= 48:
		return jwt.SigningMethodHS384
	default:
		return jwt.SigningMethodHS256
	}
}

func verifiableMethods(secret []byte) []string {
	methods := []string{jwt.SigningMethodHS256.Alg()}
	if len(secret) >= 48 {
		methods = append(methods, jwt.SigningMethodHS384.Alg())
	}
	if len(secret) >= 64 {
		methods = append(methods, jwt.SigningMethodHS512.Alg())
	}
	return methods
}
