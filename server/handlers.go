package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-fitauth"
	"github.com/goliatone/go-fitauth/apierror"
	"github.com/goliatone/go-fitauth/persistence"
)

const healthTimeout = 2 * time.Second

// AuthResponse is returned by the register and login routes
type AuthResponse struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}

// FeedResponse is returned by GET /api/feed
type FeedResponse struct {
	Greeting     string   `json:"greeting"`
	Personalized bool     `json:"personalized"`
	Level        string   `json:"level"`
	Workouts     []string `json:"workouts"`
}

var workoutsByLevel = map[auth.FitnessLevel][]string{
	auth.FitnessBeginner:     {"20 min brisk walk", "Bodyweight squats 3x10", "Plank 3x20s"},
	auth.FitnessIntermediate: {"5k tempo run", "Push ups 4x15", "Kettlebell swings 4x20"},
	auth.FitnessAdvanced:     {"Interval sprints 10x200m", "Weighted pull ups 5x5", "Deadlift 5x3"},
}

type handlers struct {
	users       auth.Users
	registerCmd *auth.RegisterUserHandler
	loginCmd    *auth.LoginUserHandler
	tokens      *auth.TokenService
	pinger      Pinger
	phoneRegion string
	hashUserIDs bool
	logger      *slog.Logger
}

func newHandlers(cfg Config) *handlers {
	return &handlers{
		users:       cfg.Repo.Users(),
		registerCmd: auth.NewRegisterUserHandler(cfg.Repo),
		loginCmd:    auth.NewLoginUserHandler(cfg.Repo.Users(), cfg.Tokens, cfg.Logger),
		tokens:      cfg.Tokens,
		pinger:      cfg.Pinger,
		phoneRegion: cfg.PhoneRegion,
		hashUserIDs: cfg.HashUserIDs,
		logger:      cfg.Logger,
	}
}

func (h *handlers) health(c router.Context) error {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
		defer cancel()

		if err := h.pinger.PingContext(ctx); err != nil {
			h.logger.Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, fiber.Map{"status": "ok"})
}

func (h *handlers) register(c router.Context) error {
	payload := RegisterPayload{}
	if err := c.Bind(&payload); err != nil {
		return malformedBody(err)
	}
	payload.Profile.WithRegion(h.phoneRegion)

	if err := payload.Validate(); err != nil {
		return err
	}

	// no account is created when no token could be issued for it
	if !h.tokens.Configured() {
		return tokenError(auth.ErrMissingSecret)
	}

	message := auth.RegisterUserMessage{
		Email:     payload.Email,
		Name:      payload.Name,
		Password:  payload.Password,
		UseHashid: h.hashUserIDs,
	}
	if payload.Profile != nil {
		message.Profile = payload.Profile.Profile(uuid.Nil)
	}

	user, err := h.registerCmd.Execute(c.Context(), message)
	if err != nil {
		return err
	}

	token, err := h.tokens.Generate(user.Identity())
	if err != nil {
		return tokenError(err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user.Identity()})
}

func (h *handlers) login(c router.Context) error {
	payload := LoginPayload{}
	if err := c.Bind(&payload); err != nil {
		return malformedBody(err)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	user, token, err := h.loginCmd.Execute(c.Context(), auth.LoginUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return apierror.Unauthorized("Invalid credentials")
		}
		return tokenError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user.Identity()})
}

func (h *handlers) me(c router.Context) error {
	identity, _, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

func (h *handlers) getProfile(c router.Context) error {
	_, userID, err := currentUser(c)
	if err != nil {
		return err
	}

	profile, err := h.users.GetProfile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handlers) createProfile(c router.Context) error {
	_, userID, err := currentUser(c)
	if err != nil {
		return err
	}

	payload, err := h.parseProfile(c)
	if err != nil {
		return err
	}

	profile, err := h.users.CreateProfile(c.Context(), payload.Profile(userID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, profile)
}

func (h *handlers) updateProfile(c router.Context) error {
	_, userID, err := currentUser(c)
	if err != nil {
		return err
	}

	payload, err := h.parseProfile(c)
	if err != nil {
		return err
	}

	profile, err := h.users.UpdateProfile(c.Context(), payload.Profile(userID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *handlers) feed(c router.Context) error {
	identity, userID, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusOK, FeedResponse{
			Greeting: "Welcome! Sign in to get a personalized plan",
			Level:    auth.FitnessBeginner,
			Workouts: workoutsByLevel[auth.FitnessBeginner],
		})
	}

	level := auth.FitnessBeginner
	profile, err := h.users.GetProfile(c.Context(), userID)
	switch {
	case err == nil:
		level = profile.FitnessLevel
	case persistence.IsNotFound(err):
	default:
		return err
	}

	workouts, ok := workoutsByLevel[level]
	if !ok {
		workouts = workoutsByLevel[auth.FitnessBeginner]
	}

	return c.JSON(http.StatusOK, FeedResponse{
		Greeting:     "Welcome back, " + displayName(identity),
		Personalized: true,
		Level:        level,
		Workouts:     workouts,
	})
}

func (h *handlers) parseProfile(c router.Context) (*ProfilePayload, error) {
	payload := &ProfilePayload{}
	if err := c.Bind(payload); err != nil {
		return nil, malformedBody(err)
	}
	payload.WithRegion(h.phoneRegion)

	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

// currentUser returns the attached identity and its id as a UUID
func currentUser(c router.Context) (*auth.Identity, uuid.UUID, error) {
	identity, ok := auth.IdentityFromRouter(c, "")
	if !ok {
		return nil, uuid.Nil, auth.NewAuthError(auth.FailureMissingToken, nil)
	}
	userID, err := uuid.Parse(identity.ID)
	if err != nil {
		return nil, uuid.Nil, auth.NewAuthError(auth.FailureUserNotFound, err)
	}
	return identity, userID, nil
}

func displayName(identity *auth.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return identity.Email
}

func malformedBody(err error) error {
	return apierror.BadRequest(err, "Malformed request body")
}

func tokenError(err error) error {
	if errors.Is(err, auth.ErrMissingSecret) {
		return auth.NewAuthError(auth.FailureMisconfigured, err)
	}
	return err
}
