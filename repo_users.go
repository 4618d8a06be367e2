package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-fitauth/persistence"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user and profile repository
type Users interface {
	repository.Repository[*User]
	UserStore

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	DeleteByID(ctx context.Context, id uuid.UUID) error

	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	CreateProfile(ctx context.Context, profile *Profile) (*Profile, error)
	CreateProfileTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) (*Profile, error)
}

type users struct {
	repository.Repository[*User]
	profiles repository.Repository[*Profile]
	db       *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository creates a Users repository backed by db
func NewUsersRepository(db *bun.DB) Users {
	return &users{
		Repository: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(u *User) uuid.UUID {
				if u == nil {
					return uuid.Nil
				}
				return u.ID
			},
			SetID: func(u *User, id uuid.UUID) {
				if u != nil {
					u.ID = id
				}
			},
			GetIdentifier: func() string {
				return "email"
			},
		}),
		profiles: NewProfilesRepository(db),
		db:       db,
	}
}

// NewProfilesRepository creates the profile repository, profiles are keyed
// by their user id
func NewProfilesRepository(db *bun.DB) repository.Repository[*Profile] {
	return repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.UserID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.UserID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})
}

// Migrate creates the users and profiles tables
func Migrate(ctx context.Context, db bun.IDB) error {
	return persistence.CreateTables(ctx, db,
		persistence.Table{Model: (*User)(nil)},
		persistence.Table{
			Model:       (*Profile)(nil),
			ForeignKeys: []string{`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`},
		},
	)
}

// FindIdentity loads only the identity columns of the user. Ids that are
// not UUIDs cannot exist and yield ErrUserNotFound.
func (u *users) FindIdentity(ctx context.Context, id string) (*Identity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	record, err := u.GetByID(ctx, uid.String(), repository.SelectColumns("id", "email", "name"))
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, persistence.Wrap("find identity", err)
	}

	identity := record.Identity()
	return &identity, nil
}

func (u *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return u.CreateTx(ctx, u.db, record, criteria...)
}

// CreateTx normalizes the email and stamps the timestamps before inserting
func (u *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	record.Email = normalizeEmail(record.Email)
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	created, err := u.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		return nil, persistence.Wrap("create user", err)
	}
	return created, nil
}

func (u *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return u.FindByEmailTx(ctx, u.db, email)
}

func (u *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record, err := u.GetByIdentifierTx(ctx, tx, normalizeEmail(email))
	if err != nil {
		return nil, persistence.Wrap("find user by email", err)
	}
	return record, nil
}

func (u *users) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := u.Update(ctx, &User{
		ID:           id,
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
	})
	return expectOne("update password", err)
}

// DeleteByID removes the user, the profile goes with it
func (u *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	record, err := u.GetByID(ctx, id.String(), repository.SelectColumns("id"))
	if err != nil {
		return persistence.Wrap("delete user", err)
	}
	if err := u.Delete(ctx, record); err != nil {
		return persistence.Wrap("delete user", err)
	}
	return nil
}

func (u *users) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	record, err := u.profiles.Get(ctx, repository.SelectBy("user_id", "=", userID.String()))
	if err != nil {
		return nil, persistence.Wrap("get profile", err)
	}
	return record, nil
}

func (u *users) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	return u.CreateProfileTx(ctx, u.db, profile)
}

func (u *users) CreateProfileTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error) {
	profile.UpdatedAt = time.Now().UTC()
	created, err := u.profiles.CreateTx(ctx, tx, profile)
	if err != nil {
		return nil, persistence.Wrap("create profile", err)
	}
	return created, nil
}

// UpdateProfile replaces every profile field, empty values included. It
// fails with persistence.ErrRecordNotFound when the user has no profile yet.
func (u *users) UpdateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	profile.UpdatedAt = time.Now().UTC()
	res, err := u.db.NewUpdate().
		Model(profile).
		Column("fitness_level", "goal", "weekly_workouts", "phone", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, persistence.Wrap("update profile", err)
	}
	if err := expectOne("update profile", repository.SQLExpectedCount(res, 1)); err != nil {
		return nil, err
	}
	return profile, nil
}

// expectOne reports a write that touched no row as a missing record
func expectOne(op string, err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseExpectedCount) {
		return persistence.Wrap(op, fmt.Errorf("%w: %w", persistence.ErrRecordNotFound, err))
	}
	return persistence.Wrap(op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
