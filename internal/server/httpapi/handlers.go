package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"userhub/internal/common"
	"userhub/internal/server/auth"
	"userhub/internal/server/models"
	"userhub/internal/server/repositories/users"
	"userhub/internal/server/services"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// userResponse is the public view of an account; credentials and the
// verification token never leave the server.
type userResponse struct {
	ID                 string     `json:"id"`
	Nickname           string     `json:"nickname"`
	Email              string     `json:"email"`
	EmailVerified      bool       `json:"email_verified"`
	FirstName          string     `json:"first_name,omitempty"`
	LastName           string     `json:"last_name,omitempty"`
	Bio                string     `json:"bio,omitempty"`
	ProfilePictureURL  string     `json:"profile_picture_url,omitempty"`
	LinkedinProfileURL string     `json:"linkedin_profile_url,omitempty"`
	GithubProfileURL   string     `json:"github_profile_url,omitempty"`
	TwitterProfileURL  string     `json:"twitter_profile_url,omitempty"`
	PersonalWebsiteURL string     `json:"personal_website_url,omitempty"`
	PhoneNumber        string     `json:"phone_number,omitempty"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	Location           string     `json:"location,omitempty"`
	Skills             []string   `json:"skills,omitempty"`
	Interests          []string   `json:"interests,omitempty"`
	Education          []any      `json:"education,omitempty"`
	WorkExperience     []any      `json:"work_experience,omitempty"`
	PreferredLanguage  string     `json:"preferred_language,omitempty"`
	Timezone           string     `json:"timezone,omitempty"`
	ProfileCompletion  int        `json:"profile_completion"`
	Role               string     `json:"role"`
	IsProfessional     bool       `json:"is_professional"`
	IsLocked           bool       `json:"is_locked"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toUserResponse(u *models.User) *userResponse {
	return &userResponse{
		ID:                 u.ID,
		Nickname:           u.Nickname,
		Email:              u.Email,
		EmailVerified:      u.EmailVerified,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Bio:                u.Bio,
		ProfilePictureURL:  u.ProfilePictureURL,
		LinkedinProfileURL: u.LinkedinProfileURL,
		GithubProfileURL:   u.GithubProfileURL,
		TwitterProfileURL:  u.TwitterProfileURL,
		PersonalWebsiteURL: u.PersonalWebsiteURL,
		PhoneNumber:        u.PhoneNumber,
		DateOfBirth:        u.DateOfBirth,
		Location:           u.Location,
		Skills:             u.Skills,
		Interests:          u.Interests,
		Education:          u.Education,
		WorkExperience:     u.WorkExperience,
		PreferredLanguage:  u.PreferredLanguage,
		Timezone:           u.Timezone,
		ProfileCompletion:  u.ProfileCompletion,
		Role:               string(u.Role),
		IsProfessional:     u.IsProfessional,
		IsLocked:           u.IsLocked,
		CreatedAt:          u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

// writeServiceError maps the service's sentinel errors to status codes
// without leaking internal detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorInvalidSection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorNotLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	input := &services.CreateUserInput{}
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Register(r.Context(), input, s.notifier)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role), s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.logger.Error(r.Context(), "issuing token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ok, err := s.users.VerifyEmailWithToken(r.Context(), vars["id"], vars["token"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired verification token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "email verified"})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user := s.users.GetByID(r.Context(), mux.Vars(r)["id"])
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	patch := &services.UserPatch{}
	if err := json.NewDecoder(r.Body).Decode(patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	removed, err := s.users.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)
	list, err := s.users.List(r.Context(), skip, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]*userResponse, 0, len(list))
	for _, u := range list {
		items = append(items, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "skip": skip, "limit": limit})
}

// searchFilter builds a SearchFilter from query parameters; absent parameters
// stay nil and are no-ops.
func searchFilter(r *http.Request) (*users.SearchFilter, error) {
	q := r.URL.Query()
	filter := &users.SearchFilter{Term: q.Get("search_term")}

	if v := q.Get("role"); v != "" {
		role, err := models.ParseRole(v)
		if err != nil {
			return nil, err
		}
		filter.Role = &role
	}
	if v := q.Get("email_verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		filter.EmailVerified = &b
	}
	if v := q.Get("is_locked"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		filter.IsLocked = &b
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.CreatedAfter = &t
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, err
		}
		filter.CreatedBefore = &t
	}
	return filter, nil
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := searchFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search parameters")
		return
	}
	skip, limit := pagination(r)

	list, err := s.users.Search(r.Context(), filter, skip, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	total, err := s.users.CountSearchResults(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]*userResponse, 0, len(list))
	for _, u := range list {
		items = append(items, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items, "total": total, "skip": skip, "limit": limit,
	})
}

func (s *Server) handleProfileCompletion(w http.ResponseWriter, r *http.Request) {
	details, err := s.users.GetProfileCompletion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleUpdateProfileSection(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	user, err := s.users.UpdateProfileSection(r.Context(), vars["id"], vars["section"], data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleProfessionalStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsProfessional bool `json:"is_professional"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.UpdateProfessionalStatus(r.Context(), mux.Vars(r)["id"], req.IsProfessional, s.notifier)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if err := s.users.UnlockAccount(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "account unlocked"})
}
