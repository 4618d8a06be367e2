package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is used when TokenOptions.TTL is zero
const DefaultTokenTTL = 24 * time.Hour

// TokenOptions configures a TokenService
type TokenOptions struct {
	// Secret is the primary HS256 signing secret. Tokens without a kid
	// header are verified with it and Generate signs with it.
	Secret string
	// SigningKeys holds additional secrets addressed by the kid header,
	// used while rotating secrets.
	SigningKeys map[string]string
	Issuer      string
	Audience    []string
	TTL         time.Duration
	Logger      Logger
}

// TokenService verifies and mints HS256 tokens
type TokenService struct {
	secret   []byte
	keyring  *keyfunc.JWKS
	issuer   string
	audience jwt.ClaimStrings
	ttl      time.Duration
	logger   Logger
	now      func() time.Time
}

var _ TokenVerifier = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(opts TokenOptions) *TokenService {
	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTokenTTL
	}

	ts := &TokenService{
		secret: []byte(opts.Secret),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		logger: opts.Logger,
		now:    time.Now,
	}

	if len(opts.Audience) > 0 {
		ts.audience = append(jwt.ClaimStrings(nil), opts.Audience...)
	}

	if len(opts.SigningKeys) > 0 {
		givenKeys := make(map[string]keyfunc.GivenKey, len(opts.SigningKeys))
		for kid, secret := range opts.SigningKeys {
			if kid == "" || secret == "" {
				continue
			}
			givenKeys[kid] = keyfunc.NewGivenCustom([]byte(secret), keyfunc.GivenKeyOptions{
				Algorithm: jwt.SigningMethodHS256.Alg(),
			})
		}
		if len(givenKeys) > 0 {
			ts.keyring = keyfunc.NewGiven(givenKeys)
		}
	}

	return ts
}

// Configured reports whether a signing secret is available
func (ts *TokenService) Configured() bool {
	return ts != nil && len(ts.secret) > 0
}

// Validate parses and validates a token string, returning its claims.
// Expired tokens return ErrTokenExpired, every other verification failure
// wraps ErrTokenMalformed.
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	if !ts.Configured() {
		return nil, ErrMissingSecret
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, ts.keyFunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode claims")
		return nil, ErrTokenMalformed
	}

	if missing := ts.missingAudience(claims.Audience); missing != "" {
		return nil, fmt.Errorf("%w: token is missing audience %q", ErrTokenMalformed, missing)
	}

	if claims.SubjectID() == "" {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, ErrMissingSubject)
	}

	return claims, nil
}

// missingAudience returns the first configured audience the token does not
// carry. The parser only checks the first one.
func (ts *TokenService) missingAudience(got jwt.ClaimStrings) string {
	for _, want := range ts.audience {
		if !slices.Contains(got, want) {
			return want
		}
	}
	return ""
}

func (ts *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		ts.logger.Debug("token service rejected signing method", "alg", t.Header["alg"])
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}

	if kid, ok := t.Header["kid"].(string); ok && kid != "" {
		if ts.keyring == nil {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return ts.keyring.Keyfunc(t)
	}

	return ts.secret, nil
}

// Generate mints a token for the identity using the primary secret
func (ts *TokenService) Generate(identity Identity) (string, error) {
	return ts.GenerateWithTTL(identity, ts.ttl)
}

// GenerateWithTTL mints a token that expires after ttl. A negative ttl
// produces an already expired token.
func (ts *TokenService) GenerateWithTTL(identity Identity, ttl time.Duration) (string, error) {
	if !ts.Configured() {
		return "", ErrMissingSecret
	}
	if identity.ID == "" {
		return "", ErrMissingSubject
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: identity.ID,
		Email:  identity.Email,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims with the primary secret
func (ts *TokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil")
	}
	if !ts.Configured() {
		return "", ErrMissingSecret
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}
