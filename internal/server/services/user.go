// Package services contains the server-side business logic. This file
// implements UserService, the account directory: lookups, creation, updates,
// search, authentication with lockout, email verification, and
// profile-completion handling.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"userhub/internal/common"
	"userhub/internal/dbx"
	"userhub/internal/logging"
	"userhub/internal/server/config"
	"userhub/internal/server/credentials"
	"userhub/internal/server/models"
	"userhub/internal/server/nickname"
	"userhub/internal/server/repositories/repomanager"
	"userhub/internal/server/repositories/users"
	"userhub/internal/server/validation"
)

// UserService orchestrates every cross-cutting account operation. It is the
// only component that touches persistence; each mutating call runs as a
// single transaction committed at the end.
//
// Persistence failures are logged and converted to typed results
// (common.ErrorInternal, nil, false); they never surface driver detail.
type UserService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	creds            *credentials.Manager
	maxLoginAttempts int
	logger           logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:               db,
		repomanager:      m,
		creds:            credentials.NewManager(cfg.BcryptCost),
		maxLoginAttempts: cfg.MaxLoginAttempts,
		logger:           logger.With("module", "user_service"),
	}
}

// Credentials exposes the credential utility for callers that need to hash
// or verify outside the directory flows (e.g. the admin CLI).
func (s *UserService) Credentials() *credentials.Manager { return s.creds }

// fetch converts repository lookups to the "empty result, never an error"
// contract: missing rows and persistence failures both come back as nil.
func (s *UserService) fetch(ctx context.Context, what string, get func(repo users.Repository) (*models.User, error)) *models.User {
	user, err := get(s.repomanager.Users(s.db))
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "lookup failed", "by", what, "error", err)
		}
		return nil
	}
	return user
}

// GetByID returns the account with the given id, or nil if absent.
func (s *UserService) GetByID(ctx context.Context, id string) *models.User {
	return s.fetch(ctx, "id", func(repo users.Repository) (*models.User, error) {
		return repo.GetByID(ctx, id)
	})
}

// GetByNickname returns the account with the given nickname, or nil if absent.
func (s *UserService) GetByNickname(ctx context.Context, nick string) *models.User {
	return s.fetch(ctx, "nickname", func(repo users.Repository) (*models.User, error) {
		return repo.GetByNickname(ctx, nick)
	})
}

// GetByEmail returns the account with the given email, or nil if absent.
func (s *UserService) GetByEmail(ctx context.Context, email string) *models.User {
	return s.fetch(ctx, "email", func(repo users.Repository) (*models.User, error) {
		return repo.GetByEmail(ctx, email)
	})
}

func (s *UserService) validateCreate(input *CreateUserInput) error {
	if err := validation.Email(input.Email); err != nil {
		return err
	}
	if err := validation.Password(input.Password); err != nil {
		return err
	}
	if input.Nickname != "" {
		if err := validation.Nickname(input.Nickname); err != nil {
			return err
		}
	}
	if input.ProfilePictureURL != "" {
		if err := validation.URL(input.ProfilePictureURL); err != nil {
			return err
		}
	}
	return nil
}

// Create validates the input, rejects duplicate emails, hashes the password,
// picks a free nickname, and persists the new account. The very first account
// in the system becomes a verified ADMIN; everybody else starts ANONYMOUS
// with a verification token and gets a verification email through notifier
// before the transaction commits.
func (s *UserService) Create(ctx context.Context, input *CreateUserInput, notifier Notifier) (*models.User, error) {
	if err := s.validateCreate(input); err != nil {
		s.logger.Warn(ctx, "user creation rejected", "error", err)
		return nil, err
	}

	digest, err := s.creds.HashPassword(input.Password)
	if err != nil {
		s.logger.Error(ctx, "hashing password failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:                uuid.NewString(),
		Email:             input.Email,
		HashedPassword:    digest,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Bio:               input.Bio,
		ProfilePictureURL: input.ProfilePictureURL,
		Skills:            input.Skills,
		Interests:         input.Interests,
	}
	if input.DateOfBirth != nil {
		t := input.DateOfBirth.Time
		user.DateOfBirth = &t
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if existing, err := repo.GetByEmail(ctx, input.Email); err == nil && existing != nil {
			return common.ErrorAlreadyExists
		} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if input.Nickname != "" {
			user.Nickname = input.Nickname
		} else {
			nick, err := s.pickFreeNickname(ctx, repo)
			if err != nil {
				return err
			}
			user.Nickname = nick
		}

		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleAdmin
			user.EmailVerified = true
		} else {
			user.Role = models.RoleAnonymous
			token, err := s.creds.GenerateVerificationToken()
			if err != nil {
				return err
			}
			user.VerificationToken = token
		}

		user.CalculateProfileCompletion()

		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}

		if user.Role != models.RoleAdmin && notifier != nil {
			if err := notifier.SendVerification(ctx, user); err != nil {
				return fmt.Errorf("sending verification email: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "user with given email already exists", "email", input.Email)
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user creation failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user created", "id", user.ID, "role", user.Role)
	return user, nil
}

// Register creates a new account; it is an alias for Create.
func (s *UserService) Register(ctx context.Context, input *CreateUserInput, notifier Notifier) (*models.User, error) {
	return s.Create(ctx, input, notifier)
}

func (s *UserService) pickFreeNickname(ctx context.Context, repo users.Repository) (string, error) {
	for {
		candidate := nickname.Generate()
		_, err := repo.GetByNickname(ctx, candidate)
		if errors.Is(err, common.ErrorNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (s *UserService) validatePatch(patch *UserPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: at least one field must be provided for update", common.ErrorValidation)
	}
	if patch.Email != nil {
		if err := validation.Email(*patch.Email); err != nil {
			return err
		}
	}
	if patch.Nickname != nil {
		if err := validation.Nickname(*patch.Nickname); err != nil {
			return err
		}
	}
	if patch.Password != nil {
		if err := validation.Password(*patch.Password); err != nil {
			return err
		}
	}
	for _, url := range []*string{
		patch.ProfilePictureURL, patch.LinkedinProfileURL, patch.GithubProfileURL,
		patch.TwitterProfileURL, patch.PersonalWebsiteURL,
	} {
		if url != nil && *url != "" {
			if err := validation.URL(*url); err != nil {
				return err
			}
		}
	}
	if patch.Role != nil {
		if _, err := models.ParseRole(string(*patch.Role)); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}
	return nil
}

func (s *UserService) repoPatch(patch *UserPatch) (*users.Patch, error) {
	rp := &users.Patch{
		Email:              patch.Email,
		Nickname:           patch.Nickname,
		FirstName:          patch.FirstName,
		LastName:           patch.LastName,
		Bio:                patch.Bio,
		ProfilePictureURL:  patch.ProfilePictureURL,
		LinkedinProfileURL: patch.LinkedinProfileURL,
		GithubProfileURL:   patch.GithubProfileURL,
		TwitterProfileURL:  patch.TwitterProfileURL,
		PersonalWebsiteURL: patch.PersonalWebsiteURL,
		PhoneNumber:        patch.PhoneNumber,
		Location:           patch.Location,
		PreferredLanguage:  patch.PreferredLanguage,
		Timezone:           patch.Timezone,
		Role:               patch.Role,
	}
	if patch.Password != nil {
		digest, err := s.creds.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		rp.HashedPassword = &digest
	}
	if patch.DateOfBirth != nil {
		t := patch.DateOfBirth.Time
		rp.DateOfBirth = &t
	}
	var err error
	if patch.Skills != nil {
		if rp.Skills, err = json.Marshal(*patch.Skills); err != nil {
			return nil, err
		}
	}
	if patch.Interests != nil {
		if rp.Interests, err = json.Marshal(*patch.Interests); err != nil {
			return nil, err
		}
	}
	if patch.Education != nil {
		if rp.Education, err = json.Marshal(*patch.Education); err != nil {
			return nil, err
		}
	}
	if patch.WorkExperience != nil {
		if rp.WorkExperience, err = json.Marshal(*patch.WorkExperience); err != nil {
			return nil, err
		}
	}
	return rp, nil
}

// Update applies a partial patch to an account, validating only the supplied
// fields, hashing a supplied password, and recomputing profile completion.
// The whole call is one transaction: all-or-nothing.
func (s *UserService) Update(ctx context.Context, id string, patch *UserPatch) (*models.User, error) {
	if err := s.validatePatch(patch); err != nil {
		s.logger.Warn(ctx, "user update rejected", "id", id, "error", err)
		return nil, err
	}

	rp, err := s.repoPatch(patch)
	if err != nil {
		s.logger.Error(ctx, "building update patch failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if err := repo.Update(ctx, id, rp); err != nil {
			return err
		}

		updated, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		completion := updated.CalculateProfileCompletion()
		if err := repo.Update(ctx, id, &users.Patch{ProfileCompletion: &completion}); err != nil {
			return err
		}
		user = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Warn(ctx, "user update conflicts with existing account", "id", id)
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user update failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Delete removes the account and reports whether a row existed.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "user deletion failed", "id", id, "error", err)
		return false, common.ErrorInternal
	}
	return removed, nil
}

// List returns accounts in creation order, page-bounded by skip and limit.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx, skip, limit)
	if err != nil {
		s.logger.Error(ctx, "listing users failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Search returns accounts matching the AND-combined filter, paginated.
func (s *UserService) Search(ctx context.Context, filter *users.SearchFilter, skip, limit int) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).Search(ctx, filter, skip, limit)
	if err != nil {
		s.logger.Error(ctx, "user search failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// CountSearchResults counts accounts matching the filter, ignoring pagination.
func (s *UserService) CountSearchResults(ctx context.Context, filter *users.SearchFilter) (int64, error) {
	count, err := s.repomanager.Users(s.db).CountSearch(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, "counting search results failed", "error", err)
		return 0, common.ErrorInternal
	}
	return count, nil
}

// Login authenticates by email and password. Unknown accounts, unverified
// emails, locked accounts and wrong passwords all yield ErrorUnauthorized so
// callers cannot enumerate accounts; the reasons are separated in the log. A
// wrong password bumps the failed-login counter atomically and locks the
// account when the configured maximum is reached.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !user.EmailVerified {
		s.logger.Warn(ctx, "login rejected: email not verified", "id", user.ID)
		return nil, common.ErrorUnauthorized
	}
	if user.IsLocked {
		s.logger.Warn(ctx, "login rejected: account locked", "id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	if !s.creds.VerifyPassword(password, user.HashedPassword) {
		attempts, locked, err := repo.IncrementFailedLogins(ctx, user.ID, s.maxLoginAttempts)
		if err != nil {
			s.logger.Error(ctx, "recording failed login failed", "id", user.ID, "error", err)
			return nil, common.ErrorInternal
		}
		if locked {
			s.logger.Warn(ctx, "account locked after failed logins", "id", user.ID, "attempts", attempts)
		}
		return nil, common.ErrorUnauthorized
	}

	now := time.Now().UTC()
	if err := repo.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.Error(ctx, "recording login failed", "id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now
	return user, nil
}

// IsAccountLocked reports the locked flag; absent accounts count as unlocked.
func (s *UserService) IsAccountLocked(ctx context.Context, email string) bool {
	user := s.GetByEmail(ctx, email)
	return user != nil && user.IsLocked
}

// ResetPassword stores a new password digest, clears the failed-login counter
// and unlocks the account. Returns false when the account is absent.
func (s *UserService) ResetPassword(ctx context.Context, id, newPassword string) (bool, error) {
	digest, err := s.creds.HashPassword(newPassword)
	if err != nil {
		s.logger.Error(ctx, "hashing password failed", "error", err)
		return false, common.ErrorInternal
	}

	zero := 0
	unlocked := false
	patch := &users.Patch{
		HashedPassword:      &digest,
		FailedLoginAttempts: &zero,
		IsLocked:            &unlocked,
	}
	if err := s.repomanager.Users(s.db).Update(ctx, id, patch); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		s.logger.Error(ctx, "password reset failed", "id", id, "error", err)
		return false, common.ErrorInternal
	}
	return true, nil
}

// VerifyEmailWithToken consumes the verification token: on an exact match it
// marks the email verified, clears the token, and promotes the role to
// AUTHENTICATED. Any mismatch, including an already-consumed token, returns
// false without mutation.
func (s *UserService) VerifyEmailWithToken(ctx context.Context, id, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.repomanager.Users(s.db).ConsumeVerificationToken(ctx, id, token)
	if err != nil {
		s.logger.Error(ctx, "email verification failed", "id", id, "error", err)
		return false, common.ErrorInternal
	}
	if ok {
		s.logger.Info(ctx, "email verified", "id", id)
	}
	return ok, nil
}

// Count returns the total number of accounts.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	count, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		s.logger.Error(ctx, "counting users failed", "error", err)
		return 0, common.ErrorInternal
	}
	return count, nil
}

// UnlockAccount clears the locked flag and failed-login counter. It fails
// with ErrorNotFound for absent accounts and ErrorNotLocked for accounts
// that are not currently locked.
func (s *UserService) UnlockAccount(ctx context.Context, id string) error {
	repo := s.repomanager.Users(s.db)

	ok, err := repo.Unlock(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "unlocking account failed", "id", id, "error", err)
		return common.ErrorInternal
	}
	if ok {
		s.logger.Info(ctx, "account unlocked", "id", id)
		return nil
	}

	if _, err := repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "unlocking account failed", "id", id, "error", err)
		return common.ErrorInternal
	}
	return common.ErrorNotLocked
}

// GetProfileCompletion recomputes and persists the completion percentage and
// returns the detailed per-section breakdown.
func (s *UserService) GetProfileCompletion(ctx context.Context, id string) (*models.CompletionDetails, error) {
	var details *models.CompletionDetails
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		completion := user.CalculateProfileCompletion()
		if err := repo.Update(ctx, id, &users.Patch{ProfileCompletion: &completion}); err != nil {
			return err
		}
		details = user.ProfileCompletionDetails()
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "profile completion failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return details, nil
}

// UpdateProfileSection updates one named profile section, silently dropping
// any keys outside the section's whitelist, then delegates to Update.
func (s *UserService) UpdateProfileSection(ctx context.Context, id, section string, data map[string]any) (*models.User, error) {
	fields, ok := models.SectionFields(section)
	if !ok {
		s.logger.Warn(ctx, "invalid profile section", "section", section)
		return nil, common.ErrorInvalidSection
	}

	filtered := make(map[string]any, len(data))
	for _, field := range fields {
		if value, ok := data[field]; ok {
			filtered[field] = value
		}
	}

	// Round-trip through JSON so section payloads get the same flexible
	// decoding (string-or-list fields, date strings) as regular patches.
	raw, err := json.Marshal(filtered)
	if err != nil {
		s.logger.Error(ctx, "encoding section data failed", "section", section, "error", err)
		return nil, common.ErrorInternal
	}
	patch := &UserPatch{}
	if err := json.Unmarshal(raw, patch); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	return s.Update(ctx, id, patch)
}

// UpdateProfessionalStatus sets the professional flag, stamping the change
// time unconditionally. The change is committed before any notification is
// attempted; an upgrade (false to true) triggers a best-effort mail whose
// failure is logged and swallowed.
func (s *UserService) UpdateProfessionalStatus(ctx context.Context, id string, isProfessional bool, notifier Notifier) (*models.User, error) {
	var user *models.User
	var shouldNotify bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		shouldNotify = !u.IsProfessional && isProfessional
		u.UpdateProfessionalStatus(isProfessional)

		patch := &users.Patch{
			IsProfessional:              &u.IsProfessional,
			ProfessionalStatusUpdatedAt: u.ProfessionalStatusUpdatedAt,
		}
		if err := repo.Update(ctx, id, patch); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "updating professional status failed", "id", id, "error", err)
		return nil, common.ErrorInternal
	}

	if shouldNotify && notifier != nil {
		if err := notifier.SendProfessionalUpgrade(ctx, user); err != nil {
			s.logger.Error(ctx, "sending professional upgrade notification failed", "id", id, "error", err)
		}
	}
	return user, nil
}
