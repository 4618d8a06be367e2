package server

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	auth "github.com/goliatone/go-fitauth"
)

// DefaultPhoneRegion is used for phone numbers without a country prefix
const DefaultPhoneRegion = "US"

// MaxWeeklyWorkouts bounds the weekly workout target
const MaxWeeklyWorkouts = 14

// RegisterPayload is the body of POST /api/auth/register
type RegisterPayload struct {
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Profile  *ProfilePayload `json:"profile,omitempty"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Name, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, auth.MaxPasswordBytes)),
		validation.Field(&r.Profile),
	)
}

// LoginPayload is the body of POST /api/auth/login
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ProfilePayload is the body of the profile create and update routes
type ProfilePayload struct {
	FitnessLevel   string `json:"fitness_level"`
	Goal           string `json:"goal"`
	WeeklyWorkouts int    `json:"weekly_workouts"`
	Phone          string `json:"phone"`

	region string
}

// Validate will validate the payload
func (p ProfilePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.FitnessLevel,
			validation.Required,
			validation.In(auth.FitnessBeginner, auth.FitnessIntermediate, auth.FitnessAdvanced),
		),
		validation.Field(&p.Goal, validation.Length(0, 280)),
		validation.Field(&p.WeeklyWorkouts, validation.Min(0), validation.Max(MaxWeeklyWorkouts)),
		validation.Field(&p.Phone, validation.By(ValidatePhone(p.region))),
	)
}

// WithRegion sets the default region used for the phone number
func (p *ProfilePayload) WithRegion(region string) *ProfilePayload {
	if p != nil {
		p.region = region
	}
	return p
}

// Profile converts the payload into the model, normalizing the phone to E.164
func (p ProfilePayload) Profile(userID uuid.UUID) *auth.Profile {
	phone := p.Phone
	if normalized, err := NormalizePhone(p.Phone, p.region); err == nil {
		phone = normalized
	}
	return &auth.Profile{
		UserID:         userID,
		FitnessLevel:   p.FitnessLevel,
		Goal:           strings.TrimSpace(p.Goal),
		WeeklyWorkouts: p.WeeklyWorkouts,
		Phone:          phone,
	}
}

var errInvalidPhone = errors.New("must be a valid phone number")

// ValidatePhone accepts empty values and numbers valid for region
func ValidatePhone(region string) validation.RuleFunc {
	return func(value any) error {
		raw, _ := value.(string)
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		if _, err := NormalizePhone(raw, region); err != nil {
			return err
		}
		return nil
	}
}

// NormalizePhone parses raw and formats it as E.164. An empty raw value is
// returned unchanged.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", errInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
