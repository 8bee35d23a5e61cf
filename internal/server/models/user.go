// Package models holds the persistent entities of the account backend.
package models

import (
	"math"
	"time"
)

// User is one row of the users table.
//
// Optional profile fields use the zero value ("" / nil / empty slice) to mean
// "not filled in"; VerificationToken is empty once verification is consumed.
type User struct {
	ID            string
	Nickname      string
	Email         string
	EmailVerified bool

	HashedPassword    string
	VerificationToken string

	FirstName          string
	LastName           string
	Bio                string
	ProfilePictureURL  string
	LinkedinProfileURL string
	GithubProfileURL   string
	TwitterProfileURL  string
	PersonalWebsiteURL string
	PhoneNumber        string
	DateOfBirth        *time.Time
	Location           string
	Skills             []string
	Interests          []string
	Education          []any
	WorkExperience     []any
	PreferredLanguage  string
	Timezone           string

	ProfileCompletion int
	Role              Role

	IsProfessional              bool
	ProfessionalStatusUpdatedAt *time.Time

	LastLoginAt         *time.Time
	FailedLoginAttempts int
	IsLocked            bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LockAccount sets the locked flag. Resetting the failed-login counter is the
// caller's responsibility where the flow requires it.
func (u *User) LockAccount() { u.IsLocked = true }

// UnlockAccount clears the locked flag.
func (u *User) UnlockAccount() { u.IsLocked = false }

// VerifyEmail marks the email as verified. Clearing the verification token and
// promoting the role is orchestrated by the service's token flow.
func (u *User) VerifyEmail() { u.EmailVerified = true }

// HasRole reports whether the account holds exactly the given role.
func (u *User) HasRole(role Role) bool { return u.Role == role }

// UpdateProfessionalStatus sets the professional flag and stamps the change
// time unconditionally, even when the flag does not change.
func (u *User) UpdateProfessionalStatus(status bool) {
	now := time.Now().UTC()
	u.IsProfessional = status
	u.ProfessionalStatusUpdatedAt = &now
}

// profileFields returns the 17 optional profile attributes that count towards
// profile completion, in their fixed order.
func (u *User) profileFields() []bool {
	return []bool{
		u.FirstName != "",
		u.LastName != "",
		u.Bio != "",
		u.ProfilePictureURL != "",
		u.LinkedinProfileURL != "",
		u.GithubProfileURL != "",
		u.TwitterProfileURL != "",
		u.PersonalWebsiteURL != "",
		u.PhoneNumber != "",
		u.DateOfBirth != nil,
		u.Location != "",
		len(u.Skills) > 0,
		len(u.Interests) > 0,
		len(u.Education) > 0,
		len(u.WorkExperience) > 0,
		u.PreferredLanguage != "",
		u.Timezone != "",
	}
}

// roundPercent converts filled/total into an integer percentage. Ties at .5
// round away from zero (math.Round); the convention is pinned by tests.
func roundPercent(filled, total int) int {
	return int(math.Round(float64(filled) / float64(total) * 100))
}

// CalculateProfileCompletion recomputes the completion percentage from the 17
// tracked profile fields, stores it on the user and returns it.
func (u *User) CalculateProfileCompletion() int {
	fields := u.profileFields()
	filled := 0
	for _, set := range fields {
		if set {
			filled++
		}
	}
	u.ProfileCompletion = roundPercent(filled, len(fields))
	return u.ProfileCompletion
}

// Section names used by completion details and profile-section updates.
const (
	SectionBasicInfo        = "basic_info"
	SectionProfessionalInfo = "professional_info"
	SectionPreferences      = "preferences"
)

// CompletionDetails describes per-section profile completion.
type CompletionDetails struct {
	OverallCompletion int                        `json:"overall_completion"`
	SectionCompletion map[string]int             `json:"section_completion"`
	FieldStatus       map[string]map[string]bool `json:"field_status"`
}

// ProfileCompletionDetails partitions the 17 tracked attributes into three
// fixed sections and reports, per section, which attributes are present and
// the rounded percentage filled, plus the stored overall percentage.
func (u *User) ProfileCompletionDetails() *CompletionDetails {
	fieldStatus := map[string]map[string]bool{
		SectionBasicInfo: {
			"first_name":      u.FirstName != "",
			"last_name":       u.LastName != "",
			"profile_picture": u.ProfilePictureURL != "",
			"bio":             u.Bio != "",
			"phone_number":    u.PhoneNumber != "",
			"date_of_birth":   u.DateOfBirth != nil,
			"location":        u.Location != "",
		},
		SectionProfessionalInfo: {
			"linkedin_profile": u.LinkedinProfileURL != "",
			"github_profile":   u.GithubProfileURL != "",
			"twitter_profile":  u.TwitterProfileURL != "",
			"personal_website": u.PersonalWebsiteURL != "",
			"skills":           len(u.Skills) > 0,
			"work_experience":  len(u.WorkExperience) > 0,
			"education":        len(u.Education) > 0,
		},
		SectionPreferences: {
			"interests":          len(u.Interests) > 0,
			"preferred_language": u.PreferredLanguage != "",
			"timezone":           u.Timezone != "",
		},
	}

	sectionCompletion := make(map[string]int, len(fieldStatus))
	for section, fields := range fieldStatus {
		completed := 0
		for _, set := range fields {
			if set {
				completed++
			}
		}
		sectionCompletion[section] = roundPercent(completed, len(fields))
	}

	return &CompletionDetails{
		OverallCompletion: u.ProfileCompletion,
		SectionCompletion: sectionCompletion,
		FieldStatus:       fieldStatus,
	}
}

// SectionFields maps a profile section name to the user fields it may update.
// Returns false for unknown section names.
func SectionFields(section string) ([]string, bool) {
	switch section {
	case SectionBasicInfo:
		return []string{
			"first_name", "last_name", "bio", "profile_picture_url",
			"phone_number", "date_of_birth", "location",
		}, true
	case SectionProfessionalInfo:
		return []string{
			"linkedin_profile_url", "github_profile_url", "twitter_profile_url",
			"personal_website_url", "skills", "work_experience", "education",
		}, true
	case SectionPreferences:
		return []string{"interests", "preferred_language", "timezone"}, true
	}
	return nil, false
}
