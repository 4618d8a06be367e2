package auth

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-fitauth/observability"
)

// DefaultLookupTimeout bounds the user store lookup
const DefaultLookupTimeout = 5 * time.Second

// Authenticator turns a raw bearer token into an Identity
type Authenticator struct {
	tokens        TokenVerifier
	store         UserStore
	logger        Logger
	lookupTimeout time.Duration
	configured    func() bool
}

// Option configures an Authenticator
type Option func(*Authenticator)

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLookupTimeout sets the deadline applied to the user store lookup
func WithLookupTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.lookupTimeout = d
		}
	}
}

// NewAuthenticator creates an Authenticator verifying tokens with verifier
// and resolving subjects with store. A verifier that also implements
// ConfigurationChecker is consulted before each verification.
func NewAuthenticator(verifier TokenVerifier, store UserStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		tokens:        verifier,
		store:         store,
		logger:        defaultLogger(),
		lookupTimeout: DefaultLookupTimeout,
		configured:    func() bool { return verifier != nil },
	}
	if checker, ok := verifier.(ConfigurationChecker); ok {
		a.configured = checker.Configured
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Authenticate verifies rawToken and loads the matching Identity.
// Every failure is an *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, NewAuthError(FailureMissingToken, nil)
	}

	if !a.configured() {
		a.logger.Error("authentication rejected: signing secret is not configured")
		return nil, NewAuthError(FailureMisconfigured, ErrMissingSecret)
	}

	claims, err := a.tokens.Validate(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			return nil, NewAuthError(FailureExpiredToken, err)
		case errors.Is(err, ErrMissingSecret):
			return nil, NewAuthError(FailureMisconfigured, err)
		default:
			return nil, NewAuthError(FailureInvalidToken, err)
		}
	}

	identity, err := a.lookup(ctx, claims.SubjectID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, NewAuthError(FailureUserNotFound, err)
		}
		a.logger.Error("authentication user lookup failed", "subject", claims.SubjectID(), "error", err)
		return nil, NewAuthError(FailureInternal, err)
	}

	return identity, nil
}

func (a *Authenticator) lookup(ctx context.Context, id string) (*Identity, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	start := time.Now()
	identity, err := a.store.FindIdentity(ctx, id)
	observability.UserLookupDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}

	// store implementations may hand back richer records, only the
	// projection leaves this package
	return &Identity{ID: identity.ID, Email: identity.Email, Name: identity.Name}, nil
}
