package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/persistence"
)

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))
	handler := auth.NewRegisterUserHandler(manager)

	user, err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "Ada@Example.com",
		Password: "correct horse battery",
		Profile:  &auth.Profile{Goal: "run a 10k", WeeklyWorkouts: 3},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.NoError(t, auth.ComparePasswordAndHash("correct horse battery", user.PasswordHash))

	profile, err := manager.Users().GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.FitnessBeginner, profile.FitnessLevel)
	assert.Equal(t, 3, profile.WeeklyWorkouts)
}

func TestRegisterUserHandler_HashedID(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))
	handler := auth.NewRegisterUserHandler(manager)

	user, err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:     "Ada@Example.com",
		Password:  "correct horse battery",
		Profile:   &auth.Profile{Goal: "run a 10k"},
		UseHashid: true,
	})
	require.NoError(t, err)

	want, err := hashid.NewUUID("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, want, user.ID)

	profile, err := manager.Users().GetProfile(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, want, profile.UserID)

	other, err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "grace@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEqual(t, want, other.ID)
}

func TestRegisterUserHandler_WithoutProfile(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))

	user, err := auth.NewRegisterUserHandler(manager).Execute(ctx, auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Name:     "Ada Lovelace",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)

	_, err = manager.Users().GetProfile(ctx, user.ID)
	assert.True(t, persistence.IsNotFound(err))
}

func TestRegisterUserHandler_DuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))
	handler := auth.NewRegisterUserHandler(manager)

	_, err := handler.Execute(ctx, auth.RegisterUserMessage{Email: "ada@example.com", Name: "Ada", Password: "password-one"})
	require.NoError(t, err)

	_, err = handler.Execute(ctx, auth.RegisterUserMessage{Email: "ada@example.com", Name: "Ada", Password: "password-two"})
	require.Error(t, err)
	assert.Equal(t, persistence.ViolationUnique, persistence.ConstraintViolation(err))
	assert.True(t, persistence.IsPersistenceError(err))

	var rich *goerrors.Error
	require.True(t, errors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryInternal, rich.Category)
	assert.Equal(t, "REGISTRATION_FAILED", rich.TextCode)

	user, err := manager.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePasswordAndHash("password-one", user.PasswordHash))
}

func TestRegisterUserHandler_EmptyPassword(t *testing.T) {
	handler := auth.NewRegisterUserHandler(auth.NewRepositoryManager(setupTestDB(t)))

	_, err := handler.Execute(context.Background(), auth.RegisterUserMessage{Email: "ada@example.com"})
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	assert.True(t, goerrors.IsValidation(err))
}

func TestRegisterUserHandler_PasswordTooLong(t *testing.T) {
	handler := auth.NewRegisterUserHandler(auth.NewRepositoryManager(setupTestDB(t)))

	_, err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Password: strings.Repeat("a", 73),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	fields, ok := goerrors.GetValidationErrors(err)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "password", fields[0].Field)
}

func TestRegisterUserHandler_CancelledContext(t *testing.T) {
	handler := auth.NewRegisterUserHandler(auth.NewRepositoryManager(setupTestDB(t)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, auth.RegisterUserMessage{Email: "ada@example.com", Password: "password"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryOperation))
}

func TestLoginUserHandler(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))
	tokens := auth.NewTokenService(auth.TokenOptions{Secret: testSecret})

	registered, err := auth.NewRegisterUserHandler(manager).Execute(ctx, auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	login := auth.NewLoginUserHandler(manager.Users(), tokens, newQuietLogger())

	user, token, err := login.Execute(ctx, auth.LoginUserMessage{Email: "ADA@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), claims.SubjectID())

	_, _, err = login.Execute(ctx, auth.LoginUserMessage{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = login.Execute(ctx, auth.LoginUserMessage{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.True(t, goerrors.IsAuth(err))
}

func TestLoginUserHandlerUpgradesHashCost(t *testing.T) {
	ctx := context.Background()
	manager := auth.NewRepositoryManager(setupTestDB(t))
	tokens := auth.NewTokenService(auth.TokenOptions{Secret: testSecret})

	_, err := auth.NewRegisterUserHandler(manager).Execute(ctx, auth.RegisterUserMessage{
		Email:    "ada@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	restore := auth.SetPasswordCost(bcrypt.MinCost + 1)
	defer restore()

	login := auth.NewLoginUserHandler(manager.Users(), tokens, newQuietLogger())
	_, _, err = login.Execute(ctx, auth.LoginUserMessage{Email: "ada@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	stored, err := manager.Users().FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.NoError(t, auth.ComparePasswordAndHash("correct horse battery", stored.PasswordHash))
}
