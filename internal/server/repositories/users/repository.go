// Package users implements persistence for account rows. Errors are reported
// through the narrow sentinel set in internal/common: ErrorNotFound for
// missing rows, ErrorAlreadyExists for uniqueness conflicts, and wrapped
// driver errors for everything else.
package users

import (
	"context"
	"time"

	"userhub/internal/server/models"
)

// Patch lists the updatable columns of an account row. A nil field means
// "not provided" and is left untouched; this is distinct from providing a
// zero value, which clears the column.
type Patch struct {
	Email              *string
	Nickname           *string
	HashedPassword     *string
	FirstName          *string
	LastName           *string
	Bio                *string
	ProfilePictureURL  *string
	LinkedinProfileURL *string
	GithubProfileURL   *string
	TwitterProfileURL  *string
	PersonalWebsiteURL *string
	PhoneNumber        *string
	DateOfBirth        *time.Time
	Location           *string
	PreferredLanguage  *string
	Timezone           *string

	// JSON-encoded list columns; nil means not provided.
	Skills         []byte
	Interests      []byte
	Education      []byte
	WorkExperience []byte

	Role                        *models.Role
	ProfileCompletion           *int
	IsProfessional              *bool
	ProfessionalStatusUpdatedAt *time.Time
	FailedLoginAttempts         *int
	IsLocked                    *bool
}

// SearchFilter combines with logical AND; zero/nil fields are no-ops.
type SearchFilter struct {
	// Term matches case-insensitively as a substring against first name,
	// last name, email or nickname.
	Term          string
	Role          *models.Role
	EmailVerified *bool
	IsLocked      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	Update(ctx context.Context, id string, patch *Patch) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	Search(ctx context.Context, filter *SearchFilter, skip, limit int) ([]*models.User, error)
	CountSearch(ctx context.Context, filter *SearchFilter) (int64, error)
	Count(ctx context.Context) (int64, error)

	// RecordLogin stamps a successful login and resets the failed counter.
	RecordLogin(ctx context.Context, id string, at time.Time) error

	// IncrementFailedLogins atomically bumps the failed-login counter and
	// locks the account once the counter reaches maxAttempts. Returns the
	// new counter value and the resulting locked flag.
	IncrementFailedLogins(ctx context.Context, id string, maxAttempts int) (int, bool, error)

	// ConsumeVerificationToken marks the email verified, clears the token
	// and promotes the role to AUTHENTICATED, in one statement guarded by
	// an exact token match. Returns false when nothing matched.
	ConsumeVerificationToken(ctx context.Context, id, token string) (bool, error)

	// Unlock clears the locked flag and failed counter for a currently
	// locked account. Returns false when the account is absent or unlocked.
	Unlock(ctx context.Context, id string) (bool, error)
}
