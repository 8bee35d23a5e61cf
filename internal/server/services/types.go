package services

import (
	"context"
	"encoding/json"
	"time"

	"userhub/internal/server/models"
)

// Notifier is the notification gateway consumed by the account service.
// Implementations send templated mail; failures are handled per-flow.
type Notifier interface {
	SendVerification(ctx context.Context, user *models.User) error
	SendProfessionalUpgrade(ctx context.Context, user *models.User) error
}

// CreateUserInput carries caller-supplied fields for account creation.
// Email and Password are required; an empty Nickname is generated.
type CreateUserInput struct {
	Email             string     `json:"email"`
	Password          string     `json:"password"`
	Nickname          string     `json:"nickname"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Bio               string     `json:"bio"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	Skills            StringList `json:"skills"`
	Interests         StringList `json:"interests"`
	DateOfBirth       *Date      `json:"date_of_birth"`
}

// UserPatch is a partial update. A nil field means "not provided"; providing
// a zero value clears the field. Only supplied fields are validated.
type UserPatch struct {
	Email              *string      `json:"email"`
	Nickname           *string      `json:"nickname"`
	Password           *string      `json:"password"`
	FirstName          *string      `json:"first_name"`
	LastName           *string      `json:"last_name"`
	Bio                *string      `json:"bio"`
	ProfilePictureURL  *string      `json:"profile_picture_url"`
	LinkedinProfileURL *string      `json:"linkedin_profile_url"`
	GithubProfileURL   *string      `json:"github_profile_url"`
	TwitterProfileURL  *string      `json:"twitter_profile_url"`
	PersonalWebsiteURL *string      `json:"personal_website_url"`
	PhoneNumber        *string      `json:"phone_number"`
	DateOfBirth        *Date        `json:"date_of_birth"`
	Location           *string      `json:"location"`
	Skills             *StringList  `json:"skills"`
	Interests          *StringList  `json:"interests"`
	Education          *AnyList     `json:"education"`
	WorkExperience     *AnyList     `json:"work_experience"`
	PreferredLanguage  *string      `json:"preferred_language"`
	Timezone           *string      `json:"timezone"`
	Role               *models.Role `json:"role"`
}

// IsEmpty reports whether no field was provided.
func (p *UserPatch) IsEmpty() bool {
	return p.Email == nil && p.Nickname == nil && p.Password == nil &&
		p.FirstName == nil && p.LastName == nil && p.Bio == nil &&
		p.ProfilePictureURL == nil && p.LinkedinProfileURL == nil &&
		p.GithubProfileURL == nil && p.TwitterProfileURL == nil &&
		p.PersonalWebsiteURL == nil && p.PhoneNumber == nil &&
		p.DateOfBirth == nil && p.Location == nil && p.Skills == nil &&
		p.Interests == nil && p.Education == nil && p.WorkExperience == nil &&
		p.PreferredLanguage == nil && p.Timezone == nil && p.Role == nil
}

// Date accepts "2006-01-02" as well as RFC 3339 timestamps in JSON.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// StringList accepts either a JSON array of strings or a single string. A
// string that parses as a JSON array is expanded; anything else is wrapped
// into a one-element list rather than rejected.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err == nil {
		*l = items
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(s), &items); err == nil {
		*l = items
		return nil
	}
	*l = StringList{s}
	return nil
}

// AnyList accepts a JSON array of arbitrary values or a single value. A
// string that parses as JSON is expanded; anything that is not an array ends
// up wrapped in a one-element list.
type AnyList []any

func (l *AnyList) UnmarshalJSON(b []byte) error {
	var items []any
	if err := json.Unmarshal(b, &items); err == nil {
		*l = items
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			if arr, ok := parsed.([]any); ok {
				*l = arr
			} else {
				*l = AnyList{parsed}
			}
			return nil
		}
		*l = AnyList{s}
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = AnyList{v}
	return nil
}
