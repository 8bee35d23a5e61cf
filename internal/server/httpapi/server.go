// Package httpapi is the thin HTTP binding over the account service. All
// business rules live in the services package; handlers only decode requests,
// call the directory, and map errors to status codes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"userhub/internal/logging"
	"userhub/internal/server/config"
	"userhub/internal/server/services"
)

type Server struct {
	address       string
	users         *services.UserService
	notifier      services.Notifier
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewServer(cfg *config.Config, us *services.UserService, notifier services.Notifier, logger logging.Logger) *Server {
	return &Server{
		address:       cfg.EndpointAddrHTTP,
		users:         us,
		notifier:      notifier,
		logger:        logger.With("module", "http_server"),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.AccessTokenValidityDuration,
	}
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/verify-email/{id}/{token}", s.handleVerifyEmail).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id}/profile-completion", s.handleProfileCompletion).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/profile/{section}", s.handleUpdateProfileSection).Methods(http.MethodPut)

	admin := r.NewRoute().Subrouter()
	admin.Use(s.requireAuth, s.requireManager)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users-search", s.handleSearchUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{id}/professional-status", s.handleProfessionalStatus).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/unlock", s.handleUnlock).Methods(http.MethodPost)

	return handlers.RecoveryHandler()(r)
}

// Run serves the HTTP API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
