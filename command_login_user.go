package auth

import (
	"context"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-fitauth/persistence"
)

// ErrInvalidCredentials is returned when the email is unknown or the
// password does not match
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(http.StatusUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// LoginUserMessage carries a login request
type LoginUserMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e LoginUserMessage) Type() string { return "user.login" }

// LoginUserHandler checks credentials and mints a token
type LoginUserHandler struct {
	users  Users
	tokens *TokenService
	logger Logger
}

// NewLoginUserHandler creates a LoginUserHandler
func NewLoginUserHandler(users Users, tokens *TokenService, logger Logger) *LoginUserHandler {
	if logger == nil {
		logger = defaultLogger()
	}
	return &LoginUserHandler{users: users, tokens: tokens, logger: logger}
}

// Execute returns the user and a fresh token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (h *LoginUserHandler) Execute(ctx context.Context, event LoginUserMessage) (*User, string, error) {
	user, err := h.users.FindByEmail(ctx, event.Email)
	if err != nil {
		if persistence.IsNotFound(err) {
			h.logger.Debug("login rejected: unknown email")
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			h.logger.Debug("login rejected: password mismatch", "user_id", user.ID)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "compare password").
			WithTextCode("PASSWORD_COMPARE_FAILED")
	}

	h.upgradeHash(ctx, user, event.Password)

	token, err := h.tokens.Generate(user.Identity())
	if err != nil {
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token").
			WithTextCode("TOKEN_GENERATION_FAILED")
	}

	return user, token, nil
}

// upgradeHash rehashes passwords stored with an outdated cost. Failures are
// logged and never fail the login.
func (h *LoginUserHandler) upgradeHash(ctx context.Context, user *User, password string) {
	if !PasswordNeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := HashPassword(password)
	if err != nil {
		h.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}

	if err := h.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		h.logger.Warn("password rehash not stored", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}
