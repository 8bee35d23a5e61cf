package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"userhub/internal/common"
	"userhub/internal/dbx"
	"userhub/internal/server/models"
)

const uniqueViolation = "23505"

const userColumns = `id, nickname, email, email_verified, hashed_password, verification_token,
	 first_name, last_name, bio, profile_picture_url, linkedin_profile_url, github_profile_url,
	 twitter_profile_url, personal_website_url, phone_number, date_of_birth, location,
	 skills, interests, education, work_experience, preferred_language, timezone,
	 profile_completion, role, is_professional, professional_status_updated_at,
	 last_login_at, failed_login_attempts, is_locked, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// wrapDBError converts driver errors into the repository's sentinel set.
func wrapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                 models.User
		verificationToken sql.NullString
		firstName         sql.NullString
		lastName          sql.NullString
		bio               sql.NullString
		pictureURL        sql.NullString
		linkedinURL       sql.NullString
		githubURL         sql.NullString
		twitterURL        sql.NullString
		websiteURL        sql.NullString
		phone             sql.NullString
		dateOfBirth       sql.NullTime
		location          sql.NullString
		skills            []byte
		interests         []byte
		education         []byte
		workExperience    []byte
		language          sql.NullString
		tz                sql.NullString
		role              string
		profStatusAt      sql.NullTime
		lastLoginAt       sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Nickname, &u.Email, &u.EmailVerified, &u.HashedPassword, &verificationToken,
		&firstName, &lastName, &bio, &pictureURL, &linkedinURL, &githubURL,
		&twitterURL, &websiteURL, &phone, &dateOfBirth, &location,
		&skills, &interests, &education, &workExperience, &language, &tz,
		&u.ProfileCompletion, &role, &u.IsProfessional, &profStatusAt,
		&lastLoginAt, &u.FailedLoginAttempts, &u.IsLocked, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, wrapDBError(err)
	}

	u.VerificationToken = verificationToken.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Bio = bio.String
	u.ProfilePictureURL = pictureURL.String
	u.LinkedinProfileURL = linkedinURL.String
	u.GithubProfileURL = githubURL.String
	u.TwitterProfileURL = twitterURL.String
	u.PersonalWebsiteURL = websiteURL.String
	u.PhoneNumber = phone.String
	u.Location = location.String
	u.PreferredLanguage = language.String
	u.Timezone = tz.String
	u.Role = models.Role(role)
	if dateOfBirth.Valid {
		t := dateOfBirth.Time
		u.DateOfBirth = &t
	}
	if profStatusAt.Valid {
		t := profStatusAt.Time
		u.ProfessionalStatusUpdatedAt = &t
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		u.LastLoginAt = &t
	}
	if err := unmarshalList(skills, &u.Skills); err != nil {
		return nil, err
	}
	if err := unmarshalList(interests, &u.Interests); err != nil {
		return nil, err
	}
	if err := unmarshalList(education, &u.Education); err != nil {
		return nil, err
	}
	if err := unmarshalList(workExperience, &u.WorkExperience); err != nil {
		return nil, err
	}
	return &u, nil
}

func unmarshalList[T any](data []byte, dst *[]T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func marshalList[T any](list []T) ([]byte, error) {
	if list == nil {
		return nil, nil
	}
	return json.Marshal(list)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	skills, err := marshalList(user.Skills)
	if err != nil {
		return nil, err
	}
	interests, err := marshalList(user.Interests)
	if err != nil {
		return nil, err
	}
	education, err := marshalList(user.Education)
	if err != nil {
		return nil, err
	}
	workExperience, err := marshalList(user.WorkExperience)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (id, nickname, email, email_verified, hashed_password, verification_token,
		    first_name, last_name, bio, profile_picture_url, linkedin_profile_url, github_profile_url,
		    twitter_profile_url, personal_website_url, phone_number, date_of_birth, location,
		    skills, interests, education, work_experience, preferred_language, timezone,
		    profile_completion, role, is_professional, failed_login_attempts, is_locked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		    $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Nickname, user.Email, user.EmailVerified, user.HashedPassword,
		nullString(user.VerificationToken),
		nullString(user.FirstName), nullString(user.LastName), nullString(user.Bio),
		nullString(user.ProfilePictureURL), nullString(user.LinkedinProfileURL),
		nullString(user.GithubProfileURL), nullString(user.TwitterProfileURL),
		nullString(user.PersonalWebsiteURL), nullString(user.PhoneNumber),
		nullTime(user.DateOfBirth), nullString(user.Location),
		skills, interests, education, workExperience,
		nullString(user.PreferredLanguage), nullString(user.Timezone),
		user.ProfileCompletion, string(user.Role), user.IsProfessional,
		user.FailedLoginAttempts, user.IsLocked,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, wrapDBError(err)
	}

	return user, nil
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	return scanUser(r.db.QueryRowContext(ctx, query, value))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return r.getBy(ctx, "nickname", nickname)
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch *Patch) error {
	set := make([]string, 0, 16)
	args := make([]any, 0, 16)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Nickname != nil {
		add("nickname", *patch.Nickname)
	}
	if patch.HashedPassword != nil {
		add("hashed_password", *patch.HashedPassword)
	}
	if patch.FirstName != nil {
		add("first_name", nullString(*patch.FirstName))
	}
	if patch.LastName != nil {
		add("last_name", nullString(*patch.LastName))
	}
	if patch.Bio != nil {
		add("bio", nullString(*patch.Bio))
	}
	if patch.ProfilePictureURL != nil {
		add("profile_picture_url", nullString(*patch.ProfilePictureURL))
	}
	if patch.LinkedinProfileURL != nil {
		add("linkedin_profile_url", nullString(*patch.LinkedinProfileURL))
	}
	if patch.GithubProfileURL != nil {
		add("github_profile_url", nullString(*patch.GithubProfileURL))
	}
	if patch.TwitterProfileURL != nil {
		add("twitter_profile_url", nullString(*patch.TwitterProfileURL))
	}
	if patch.PersonalWebsiteURL != nil {
		add("personal_website_url", nullString(*patch.PersonalWebsiteURL))
	}
	if patch.PhoneNumber != nil {
		add("phone_number", nullString(*patch.PhoneNumber))
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Location != nil {
		add("location", nullString(*patch.Location))
	}
	if patch.Skills != nil {
		add("skills", patch.Skills)
	}
	if patch.Interests != nil {
		add("interests", patch.Interests)
	}
	if patch.Education != nil {
		add("education", patch.Education)
	}
	if patch.WorkExperience != nil {
		add("work_experience", patch.WorkExperience)
	}
	if patch.PreferredLanguage != nil {
		add("preferred_language", nullString(*patch.PreferredLanguage))
	}
	if patch.Timezone != nil {
		add("timezone", nullString(*patch.Timezone))
	}
	if patch.Role != nil {
		add("role", string(*patch.Role))
	}
	if patch.ProfileCompletion != nil {
		add("profile_completion", *patch.ProfileCompletion)
	}
	if patch.IsProfessional != nil {
		add("is_professional", *patch.IsProfessional)
	}
	if patch.ProfessionalStatusUpdatedAt != nil {
		add("professional_status_updated_at", *patch.ProfessionalStatusUpdatedAt)
	}
	if patch.FailedLoginAttempts != nil {
		add("failed_login_attempts", *patch.FailedLoginAttempts)
	}
	if patch.IsLocked != nil {
		add("is_locked", *patch.IsLocked)
	}

	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapDBError(err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`, userColumns)

	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return users, nil
}

// buildFilter turns a SearchFilter into AND-combined conditions, continuing
// the argument numbering from args.
func buildFilter(filter *SearchFilter, args []any) ([]string, []any) {
	conditions := make([]string, 0, 6)
	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Term != "" {
		add(`(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR nickname ILIKE $%[1]d)`,
			"%"+filter.Term+"%")
	}
	if filter.Role != nil {
		add(`role = $%d`, string(*filter.Role))
	}
	if filter.EmailVerified != nil {
		add(`email_verified = $%d`, *filter.EmailVerified)
	}
	if filter.IsLocked != nil {
		add(`is_locked = $%d`, *filter.IsLocked)
	}
	if filter.CreatedAfter != nil {
		add(`created_at >= $%d`, *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		add(`created_at <= $%d`, *filter.CreatedBefore)
	}
	return conditions, args
}

func (r *PostgresRepository) Search(ctx context.Context, filter *SearchFilter, skip, limit int) ([]*models.User, error) {
	conditions, args := buildFilter(filter, nil)

	query := fmt.Sprintf(`SELECT %s FROM users`, userColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, skip)
	query += fmt.Sprintf(" ORDER BY created_at, id OFFSET $%d", len(args))
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *PostgresRepository) CountSearch(ctx context.Context, filter *SearchFilter) (int64, error) {
	conditions, args := buildFilter(filter, nil)

	query := `SELECT count(*) FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapDBError(err)
	}
	return count, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, wrapDBError(err)
	}
	return count, nil
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, last_login_at = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// IncrementFailedLogins relies on a single UPDATE so that concurrent
// wrong-password attempts serialize on the row and the lock threshold is hit
// exactly once.
func (r *PostgresRepository) IncrementFailedLogins(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	query :=
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1,
		     is_locked = is_locked OR failed_login_attempts + 1 >= $2,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING failed_login_attempts, is_locked
		 `

	var attempts int
	var locked bool
	err := r.db.QueryRowContext(ctx, query, id, maxAttempts).Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, common.ErrorNotFound
		}
		return 0, false, wrapDBError(err)
	}
	return attempts, locked, nil
}

func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, id, token string) (bool, error) {
	query :=
		`UPDATE users
		 SET email_verified = true, verification_token = NULL, role = $3, updated_at = now()
		 WHERE id = $1 AND verification_token = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, token, string(models.RoleAuthenticated))
	if err != nil {
		return false, wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapDBError(err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) Unlock(ctx context.Context, id string) (bool, error) {
	query :=
		`UPDATE users SET is_locked = false, failed_login_attempts = 0, updated_at = now()
		 WHERE id = $1 AND is_locked = true
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, wrapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapDBError(err)
	}
	return affected > 0, nil
}
