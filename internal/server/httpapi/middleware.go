package httpapi

import (
	"context"
	"net/http"
	"strings"

	"userhub/internal/server/auth"
	"userhub/internal/server/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// requireAuth validates the Bearer token and stores its claims in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.GetClaimsFromToken(token, s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireManager restricts a route to MANAGER and ADMIN roles.
func (s *Server) requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		role, err := models.ParseRole(claims.Role)
		if err != nil || (role != models.RoleManager && role != models.RoleAdmin) {
			writeError(w, http.StatusForbidden, "insufficient role")
			return
		}
		next.ServeHTTP(w, r)
	})
}
