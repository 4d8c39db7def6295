package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-of-sufficient-length"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, secret string, ttl time.Duration, opts ...Option) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{Secret: []byte(secret), Expiration: ttl}, opts...)
	require.NoError(t, err)
	return svc
}

func TestIssue_ExtractUserID_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)

	for _, userID := range []string{"user-42", "", "björn@example.com", "id with spaces"} {
		token, err := svc.Issue(userID)
		require.NoError(t, err)

		got, err := svc.ExtractUserID(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.True(t, svc.IsValid(token))
	}
}

func TestIssue_WireFormat(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := newTestService(t, testSecret, time.Hour, WithClock(clock.Now))

	token, exp, err := svc.IssueWithExpiry("user-42")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)
	assert.True(t, clock.Now().Add(time.Hour).Equal(exp))

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Header["alg"])

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "user-42", claims["sub"])
	assert.EqualValues(t, clock.Now().Unix(), claims["iat"])
	assert.EqualValues(t, clock.Now().Add(time.Hour).Unix(), claims["exp"])
	assert.Len(t, claims, 3)
}

func TestParseClaims_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	ttl := 10 * time.Second
	svc := newTestService(t, testSecret, ttl, WithClock(clock.Now))

	token, err := svc.Issue("user-42")
	require.NoError(t, err)

	assert.True(t, svc.IsValid(token), "valid at issued_at")

	clock.Advance(ttl - time.Millisecond)
	assert.True(t, svc.IsValid(token), "valid just before expiry")

	clock.Advance(time.Millisecond)
	assert.False(t, svc.IsValid(token), "invalid at expiry")

	_, err = svc.ParseClaims(token)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, TokenExpired, tokenErr.Kind)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	clock.Advance(time.Hour)
	assert.False(t, svc.IsValid(token), "invalid after expiry")
}

func TestScenario_ShortLivedToken(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	svc := newTestService(t, testSecret, 1000*time.Millisecond, WithClock(clock.Now))

	token, err := svc.Issue("user-42")
	require.NoError(t, err)
	assert.True(t, svc.IsValid(token))

	clock.Advance(1100 * time.Millisecond)
	assert.False(t, svc.IsValid(token))
}

func TestParseClaims_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestService(t, testSecret, time.Hour)
	verifier := newTestService(t, "another-secret-key-of-sufficient-len", time.Hour)

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	assert.False(t, verifier.IsValid(token))

	_, err = verifier.ExtractUserID(token)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, TokenSignatureInvalid, tokenErr.Kind)
}

func TestParseClaims_SharedSecretAcrossInstances(t *testing.T) {
	t.Parallel()

	issuer := newTestService(t, testSecret, time.Hour)
	verifier := newTestService(t, testSecret, 5*time.Minute)

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	got, err := verifier.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", got)
}

func TestParseClaims_Malformed(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)
	valid, err := svc.Issue("user-42")
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":          "not-a-token",
		"empty":            "",
		"two segments":     valid[:strings.LastIndex(valid, ".")],
		"truncated":        valid[:len(valid)-4],
		"tampered payload": tamperPayload(t, valid),
	}

	for name, token := range cases {
		token := token
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.False(t, svc.IsValid(token))

			claims, err := svc.ParseClaims(token)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, IsTokenError(err))
		})
	}
}

func TestParseClaims_RejectsUnsignedAndForeignAlgorithms(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)
	claims := jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(time.Hour).Unix()}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, svc.IsValid(unsigned))

	// HS512 needs a 64 byte key, which this instance does not have.
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ParseClaims(hs512)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, TokenSignatureInvalid, tokenErr.Kind)
}

func TestParseClaims_RequiresExpiration(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-42"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ParseClaims(token)
	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, TokenClaimsInvalid, tokenErr.Kind)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestParseClaims_AcceptsPeerIssuedToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-7",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.Subject)
	assert.Equal(t, now.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestSigningMethod_FollowsKeyLength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		secret string
		alg    string
	}{
		{secret: strings.Repeat("k", 32), alg: "HS256"},
		{secret: strings.Repeat("k", 48), alg: "HS384"},
		{secret: strings.Repeat("k", 64), alg: "HS512"},
	}

	for _, tc := range cases {
		svc := newTestService(t, tc.secret, time.Hour)
		assert.Equal(t, tc.alg, svc.Algorithm())

		token, err := svc.Issue("user-42")
		require.NoError(t, err)
		assert.True(t, svc.IsValid(token))
	}

	// A 64 byte key still verifies HS256 tokens from peers holding the same secret.
	long := strings.Repeat("k", 64)
	svc := newTestService(t, long, time.Hour)
	peer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(long))
	require.NoError(t, err)
	assert.True(t, svc.IsValid(peer))
}

func TestNewTokenService_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		cfg     TokenConfig
		field   string
		wantErr error
	}{
		"empty env secret": {
			cfg:     TokenConfig{Expiration: time.Hour, Source: SecretSourceEnv},
			field:   "JWT_SECRET_KEY",
			wantErr: ErrMissingSecret,
		},
		"empty explicit secret": {
			cfg:     TokenConfig{Secret: []byte{}, Expiration: time.Hour},
			field:   "secret",
			wantErr: ErrMissingSecret,
		},
		"short secret": {
			cfg:     TokenConfig{Secret: []byte("short"), Expiration: time.Hour},
			field:   "secret",
			wantErr: ErrWeakSecret,
		},
		"zero expiration": {
			cfg:     TokenConfig{Secret: []byte(testSecret)},
			field:   "expiration",
			wantErr: ErrInvalidExpiration,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, err := NewTokenService(tc.cfg)
			assert.Nil(t, svc)

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.False(t, IsTokenError(err))
		})
	}
}

func TestNewTokenService_CopiesSecret(t *testing.T) {
	t.Parallel()

	secret := []byte(testSecret)
	svc, err := NewTokenService(TokenConfig{Secret: secret, Expiration: time.Hour})
	require.NoError(t, err)

	token, err := svc.Issue("user-42")
	require.NoError(t, err)

	secret[0] = 'X'
	assert.True(t, svc.IsValid(token))
}

func TestTokenService_ConcurrentUse(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, time.Hour)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := "user-" + strings.Repeat("x", i)
			token, err := svc.Issue(userID)
			if err != nil {
				errs <- err
				return
			}
			got, err := svc.ExtractUserID(token)
			if err != nil {
				errs <- err
				return
			}
			if got != userID {
				errs <- errors.New("subject mismatch for " + userID)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func tamperPayload(t *testing.T, token string) string {
	t.Helper()

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("attacker-controlled-secret-key-value"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = strings.Split(other, ".")[1]
	return strings.Join(parts, ".")
}
