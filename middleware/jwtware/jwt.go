package jwtware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/apierror"
	"github.com/goliatone/go-fitauth/observability"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup       = "header:" + router.HeaderAuthorization
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

const (
	modeStrict   = "strict"
	modeOptional = "optional"
)

// IdentityAuthenticator resolves a raw token to an identity. Failures are
// expected to be *auth.AuthError values.
type IdentityAuthenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// Logger is the structured logger used by the middleware
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type Config struct {
	// Authenticator is required
	Authenticator IdentityAuthenticator
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool
	// ErrorHandler writes the strict mode failure response. The default
	// writes the JSON envelope for the failure kind.
	ErrorHandler func(router.Context, *auth.AuthError) error
	// ContextKey is the Locals key holding the *auth.Identity
	ContextKey string
	// TokenLookup is a comma separated list of source:name pairs, e.g.
	// "header:Authorization,cookie:jwt"
	TokenLookup string
	AuthScheme  string
	Logger      Logger
}

// New returns the strict authentication stage. Requests without a valid
// token for an existing user are terminated with the failure envelope.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if cfg.Filter != nil && cfg.Filter(c) {
				return c.Next()
			}

			identity, authErr := cfg.authenticate(c, extractors)
			if authErr != nil {
				observability.AuthAttemptsTotal.WithLabelValues(modeStrict, authErr.Kind.String()).Inc()
				cfg.Logger.Debug("request rejected", "path", c.Path(), "reason", authErr.Kind.String())
				return cfg.ErrorHandler(c, authErr)
			}

			observability.AuthAttemptsTotal.WithLabelValues(modeStrict, "success").Inc()
			cfg.attach(c, identity)
			return c.Next()
		}
	}
}

// Optional returns the permissive authentication stage. The identity is
// attached when the token checks out, every failure proceeds anonymously.
//
// A store outage is indistinguishable from an anonymous caller for the
// next handler. It is logged at warn level.
func Optional(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := cfg.getExtractors()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if cfg.Filter != nil && cfg.Filter(c) {
				return c.Next()
			}

			identity, authErr := cfg.authenticate(c, extractors)
			if authErr != nil {
				observability.AuthAttemptsTotal.WithLabelValues(modeOptional, authErr.Kind.String()).Inc()
				switch authErr.Kind {
				case auth.FailureInternal, auth.FailureMisconfigured:
					cfg.Logger.Warn("optional auth degraded to anonymous", "path", c.Path(), "reason", authErr.Kind.String())
				default:
					cfg.Logger.Debug("optional auth failed, proceeding", "path", c.Path(), "reason", authErr.Kind.String())
				}
				return c.Next()
			}

			observability.AuthAttemptsTotal.WithLabelValues(modeOptional, "success").Inc()
			cfg.attach(c, identity)
			return c.Next()
		}
	}
}

func (cfg Config) authenticate(c router.Context, extractors []JWTExtractor) (identity *auth.Identity, authErr *auth.AuthError) {
	defer func() {
		if r := recover(); r != nil {
			identity = nil
			authErr = auth.NewAuthError(auth.FailureInternal, errors.New("authenticator panicked"))
		}
	}()

	raw, err := ExtractRawTokenFromContext(c, extractors)
	if err != nil || raw == "" {
		return nil, auth.NewAuthError(auth.FailureMissingToken, err)
	}

	identity, err = cfg.Authenticator.Authenticate(c.Context(), raw)
	if err != nil {
		if !errors.As(err, &authErr) {
			authErr = auth.NewAuthError(auth.FailureInternal, err)
		}
		return nil, authErr
	}
	if identity == nil {
		return nil, auth.NewAuthError(auth.FailureUserNotFound, nil)
	}
	return identity, nil
}

func (cfg Config) attach(c router.Context, identity *auth.Identity) {
	c.Locals(cfg.ContextKey, identity)
	c.SetContext(auth.WithIdentity(c.Context(), identity))
}

// DefaultErrorHandler writes the failure envelope for authErr
func DefaultErrorHandler(c router.Context, authErr *auth.AuthError) error {
	return c.JSON(authErr.Status(), apierror.Envelope{
		Error:   authErr.Label(),
		Message: authErr.Message(),
	})
}

func ExtractRawTokenFromContext(c router.Context, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Authenticator == nil {
		panic("AUTH: JWT middleware configuration: Authenticator is required.")
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default().With("component", "jwtware")
	}

	return cfg
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, jwtFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(name))
		case "param":
			extractors = append(extractors, jwtFromParam(name))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(name))
		}
	}

	return extractors
}

type JWTExtractor func(c router.Context) (string, error)

// jwtFromHeader returns a function that extracts token from the request header.
// The value must be "<scheme> <token>".
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	l := len(authScheme)
	return func(c router.Context) (string, error) {
		a := c.Header(header)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l+1:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
