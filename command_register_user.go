package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a validated registration request
type RegisterUserMessage struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	// Profile is optional, when set it is created with the user
	Profile *Profile `json:"profile,omitempty"`
	// UseHashid derives the user id from the normalized email
	UseHashid bool `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates the user and, when given, its profile in a
// single transaction.
type RegisterUserHandler struct {
	repo    RepositoryManager
	timeout time.Duration
}

// NewRegisterUserHandler creates a RegisterUserHandler
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, timeout: 10 * time.Second}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user registration").
			WithTextCode("REGISTRATION_CANCELLED")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	hash, err := HashPassword(event.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	user := &User{
		Email:        event.Email,
		Name:         getName(event.Name, event.Email),
		PasswordHash: hash,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(normalizeEmail(event.Email)); err == nil {
			user.ID = id
		}
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := h.repo.Users()

		if _, err := users.CreateTx(ctx, tx, user); err != nil {
			return err
		}

		if event.Profile == nil {
			return nil
		}

		profile := *event.Profile
		profile.UserID = user.ID
		if profile.FitnessLevel == "" {
			profile.FitnessLevel = FitnessBeginner
		}
		_, err := users.CreateProfileTx(ctx, tx, &profile)
		return err
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed").
			WithTextCode("REGISTRATION_FAILED")
	}

	return user, nil
}

// passwordError reports unusable passwords as validation errors on the
// password field
func passwordError(err error) error {
	switch {
	case errors.Is(err, ErrNoEmptyString):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided").
			WithTextCode("INVALID_PASSWORD")
	case errors.Is(err, ErrPasswordTooLong):
		e := goerrors.NewValidation("invalid password provided", goerrors.FieldError{
			Field:   "password",
			Message: "the length must be no more than 72 bytes",
		}).WithTextCode("INVALID_PASSWORD")
		e.Source = err
		return e
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password").
			WithTextCode("PASSWORD_HASH_FAILED")
	}
}

func getName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	if strings.Contains(email, "@") {
		name = strings.Split(email, "@")[0]
	}

	return name
}
