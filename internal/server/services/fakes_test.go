package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"userhub/internal/common"
	"userhub/internal/dbx"
	"userhub/internal/server/models"
	"userhub/internal/server/repositories/users"
)

// fakeRepo is an in-memory users.Repository used to exercise the service
// flows without a database.
type fakeRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	order []string

	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*models.User)}
}

func (f *fakeRepo) add(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	f.users[u.ID] = u
	f.order = append(f.order, u.ID)
}

func (f *fakeRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *fakeRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	for _, u := range f.users {
		if u.Email == user.Email || u.Nickname == user.Nickname {
			f.mu.Unlock()
			return nil, common.ErrorAlreadyExists
		}
	}
	f.mu.Unlock()
	f.add(user)
	return user, nil
}

func (f *fakeRepo) findBy(match func(*models.User) bool) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if u, ok := f.users[id]; ok && match(u) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeRepo) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.Nickname == nickname })
}

func (f *fakeRepo) Update(ctx context.Context, id string, patch *users.Patch) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := applyPatch(u, patch); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func applyPatch(u *models.User, patch *users.Patch) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&u.Email, patch.Email)
	setString(&u.Nickname, patch.Nickname)
	setString(&u.HashedPassword, patch.HashedPassword)
	setString(&u.FirstName, patch.FirstName)
	setString(&u.LastName, patch.LastName)
	setString(&u.Bio, patch.Bio)
	setString(&u.ProfilePictureURL, patch.ProfilePictureURL)
	setString(&u.LinkedinProfileURL, patch.LinkedinProfileURL)
	setString(&u.GithubProfileURL, patch.GithubProfileURL)
	setString(&u.TwitterProfileURL, patch.TwitterProfileURL)
	setString(&u.PersonalWebsiteURL, patch.PersonalWebsiteURL)
	setString(&u.PhoneNumber, patch.PhoneNumber)
	setString(&u.Location, patch.Location)
	setString(&u.PreferredLanguage, patch.PreferredLanguage)
	setString(&u.Timezone, patch.Timezone)
	if patch.DateOfBirth != nil {
		t := *patch.DateOfBirth
		u.DateOfBirth = &t
	}
	if patch.Skills != nil {
		if err := json.Unmarshal(patch.Skills, &u.Skills); err != nil {
			return err
		}
	}
	if patch.Interests != nil {
		if err := json.Unmarshal(patch.Interests, &u.Interests); err != nil {
			return err
		}
	}
	if patch.Education != nil {
		if err := json.Unmarshal(patch.Education, &u.Education); err != nil {
			return err
		}
	}
	if patch.WorkExperience != nil {
		if err := json.Unmarshal(patch.WorkExperience, &u.WorkExperience); err != nil {
			return err
		}
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.ProfileCompletion != nil {
		u.ProfileCompletion = *patch.ProfileCompletion
	}
	if patch.IsProfessional != nil {
		u.IsProfessional = *patch.IsProfessional
	}
	if patch.ProfessionalStatusUpdatedAt != nil {
		t := *patch.ProfessionalStatusUpdatedAt
		u.ProfessionalStatusUpdatedAt = &t
	}
	if patch.FailedLoginAttempts != nil {
		u.FailedLoginAttempts = *patch.FailedLoginAttempts
	}
	if patch.IsLocked != nil {
		u.IsLocked = *patch.IsLocked
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return false, nil
	}
	delete(f.users, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (f *fakeRepo) all() []*models.User {
	list := make([]*models.User, 0, len(f.order))
	for _, id := range f.order {
		if u, ok := f.users[id]; ok {
			list = append(list, u)
		}
	}
	return list
}

func paginate(list []*models.User, skip, limit int) []*models.User {
	if skip >= len(list) {
		return nil
	}
	list = list[skip:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list
}

func (f *fakeRepo) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.all(), skip, limit), nil
}

func matchesFilter(u *models.User, filter *users.SearchFilter) bool {
	if filter.Term != "" {
		term := strings.ToLower(filter.Term)
		if !strings.Contains(strings.ToLower(u.FirstName), term) &&
			!strings.Contains(strings.ToLower(u.LastName), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) &&
			!strings.Contains(strings.ToLower(u.Nickname), term) {
			return false
		}
	}
	if filter.Role != nil && u.Role != *filter.Role {
		return false
	}
	if filter.EmailVerified != nil && u.EmailVerified != *filter.EmailVerified {
		return false
	}
	if filter.IsLocked != nil && u.IsLocked != *filter.IsLocked {
		return false
	}
	if filter.CreatedAfter != nil && u.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && u.CreatedAt.After(*filter.CreatedBefore) {
		return false
	}
	return true
}

func (f *fakeRepo) filtered(filter *users.SearchFilter) []*models.User {
	matched := make([]*models.User, 0)
	for _, u := range f.all() {
		if matchesFilter(u, filter) {
			matched = append(matched, u)
		}
	}
	return matched
}

func (f *fakeRepo) Search(ctx context.Context, filter *users.SearchFilter, skip, limit int) ([]*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.filtered(filter), skip, limit), nil
}

func (f *fakeRepo) CountSearch(ctx context.Context, filter *users.SearchFilter) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.filtered(filter))), nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeRepo) RecordLogin(ctx context.Context, id string, at time.Time) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.FailedLoginAttempts = 0
	t := at
	u.LastLoginAt = &t
	return nil
}

func (f *fakeRepo) IncrementFailedLogins(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, false, common.ErrorNotFound
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		u.IsLocked = true
	}
	return u.FailedLoginAttempts, u.IsLocked, nil
}

func (f *fakeRepo) ConsumeVerificationToken(ctx context.Context, id, token string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || token == "" || u.VerificationToken != token {
		return false, nil
	}
	u.EmailVerified = true
	u.VerificationToken = ""
	u.Role = models.RoleAuthenticated
	return true, nil
}

func (f *fakeRepo) Unlock(ctx context.Context, id string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.IsLocked {
		return false, nil
	}
	u.IsLocked = false
	u.FailedLoginAttempts = 0
	return true, nil
}

// fakeManager hands out the same in-memory repository for both plain and
// transactional handles.
type fakeManager struct {
	repo users.Repository
}

func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeManager) Users(db dbx.DBTX) users.Repository { return m.repo }

// fakeNotifier records notification calls.
type fakeNotifier struct {
	mu            sync.Mutex
	verifications int
	upgrades      int
	lastUser      *models.User
	failWith      error
}

func (n *fakeNotifier) SendVerification(ctx context.Context, user *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.verifications++
	n.lastUser = user
	return nil
}

func (n *fakeNotifier) SendProfessionalUpgrade(ctx context.Context, user *models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.upgrades++
	n.lastUser = user
	return nil
}
