package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FitnessLevel is the self reported training level
type FitnessLevel = string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	Name          string    `bun:"name,notnull" json:"name"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Identity projects the user to the authenticated identity
func (u *User) Identity() Identity {
	return Identity{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}

// Profile holds the fitness profile of a user
type Profile struct {
	bun.BaseModel  `bun:"table:profiles,alias:prf"`
	UserID         uuid.UUID    `bun:"user_id,pk,type:uuid" json:"user_id"`
	FitnessLevel   FitnessLevel `bun:"fitness_level,notnull" json:"fitness_level"`
	Goal           string       `bun:"goal" json:"goal,omitempty"`
	WeeklyWorkouts int          `bun:"weekly_workouts,notnull" json:"weekly_workouts"`
	Phone          string       `bun:"phone" json:"phone,omitempty"`
	UpdatedAt      time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
