// Package stub is an in-memory stand-in for the TYforge backend. It serves the
// same endpoints, error envelope and auth rules, for local development and
// end-to-end tests.
package stub

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tyforge/client/internal/logging"
	"github.com/tyforge/client/internal/middleware"
	"github.com/tyforge/client/internal/models"
)

// Options configures a stand-in server.
type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	// LoginRate is the number of login attempts per minute per client IP; zero
	// disables the limit.
	LoginRate     int
	AdminEmail    string
	AdminPassword string
	Logger        *slog.Logger
}

// Server routes stand-in requests.
type Server struct {
	store   *Store
	tokens  *tokenIssuer
	limiter middleware.RateLimiter
	handler http.Handler
}

// NewServer builds the stand-in and seeds the admin account when credentials
// are configured.
func NewServer(store *Store, opts Options) (*Server, error) {
	if store == nil {
		store = NewStore()
	}
	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("stub: jwt secret is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:   store,
		tokens:  newTokenIssuer(opts.JWTSecret, opts.TokenTTL),
		limiter: middleware.NewIPRateLimiter(opts.LoginRate, time.Minute, max(opts.LoginRate/6, 1), 10*time.Minute),
	}
	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		if _, err := store.CreateUser(opts.AdminEmail, opts.AdminPassword, "Administrator", "", true); err != nil && err != errConflict {
			return nil, fmt.Errorf("stub: seed admin: %w", err)
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = middleware.RequestLogger(logger)(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// authenticated resolves the bearer token to a user. Missing or invalid tokens
// get 401.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			respondDetail(ctx, w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		c, err := s.tokens.parse(strings.TrimSpace(raw))
		if err != nil {
			respondDetail(ctx, w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		user, ok := s.store.user(c.Subject)
		if !ok {
			respondDetail(ctx, w, http.StatusUnauthorized, "User not found")
			return
		}
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("userId", user.ID))
		next(w, r.WithContext(ctx), user)
	}
}

// admin additionally requires the is_admin flag, answering 403 otherwise.
func (s *Server) admin(next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user models.User) {
		if !user.IsAdmin {
			respondDetail(r.Context(), w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("POST /api/auth/login", middleware.Limit(s.limiter, "login", http.HandlerFunc(s.login)))
	mux.HandleFunc("POST /api/auth/signup", s.signup)

	mux.HandleFunc("GET /api/users/me", s.authenticated(s.me))
	mux.HandleFunc("PUT /api/users/me", s.authenticated(s.updateMe))
	mux.HandleFunc("GET /api/users/", s.admin(s.listUsers))
	mux.HandleFunc("DELETE /api/users/{id}", s.admin(s.deleteUser))
	mux.HandleFunc("GET /api/admin/stats", s.admin(s.adminStats))

	mux.HandleFunc("GET /api/projects/me", s.authenticated(s.myProjects))
	mux.HandleFunc("GET /api/projects/all", s.admin(s.allProjects))
	mux.HandleFunc("PUT /api/admin/update-project/{id}", s.admin(s.updateProject))
	mux.HandleFunc("POST /api/admin/share-project-url", s.admin(s.shareProjectURL))
	mux.HandleFunc("POST /api/admin/upload-project", s.admin(s.uploadProject))
	mux.HandleFunc("GET /api/admin/download-project/{user_id}", s.authenticated(s.downloadProject))
	mux.HandleFunc("GET /api/blackbook/download", s.authenticated(s.downloadBlackbook))

	mux.HandleFunc("GET /api/plans/", s.listPlans)
	mux.HandleFunc("POST /api/select-plan", s.authenticated(s.selectPlan))
	mux.HandleFunc("GET /api/orders/me", s.authenticated(s.myOrders))
	mux.HandleFunc("GET /api/orders/all", s.admin(s.allOrders))
	mux.HandleFunc("POST /api/payment/orders/{id}/proof", s.authenticated(s.submitProof))
	mux.HandleFunc("GET /api/payment/admin/orders/{id}/proof", s.admin(s.paymentProof))
	mux.HandleFunc("POST /api/payment/admin/orders/{id}/approve", s.admin(s.approvePayment))

	mux.HandleFunc("POST /api/synopsis/upload", s.authenticated(s.uploadSynopsis))
	mux.HandleFunc("GET /api/synopsis/me", s.authenticated(s.mySynopses))
	mux.HandleFunc("GET /api/synopsis/all", s.admin(s.allSynopses))
	mux.HandleFunc("PUT /api/synopsis/admin/{id}", s.admin(s.reviewSynopsis))
	mux.HandleFunc("GET /api/synopsis/admin/download/{id}", s.admin(s.downloadSynopsis))

	mux.HandleFunc("POST /api/meetings/", s.authenticated(s.bookMeeting))
	mux.HandleFunc("GET /api/meetings/me", s.authenticated(s.myMeetings))
	mux.HandleFunc("GET /api/meetings/all", s.admin(s.allMeetings))
	mux.HandleFunc("PUT /api/meetings/{id}", s.admin(s.updateMeeting))
	mux.HandleFunc("DELETE /api/meetings/{id}", s.authenticated(s.deleteMeeting))

	mux.HandleFunc("POST /api/admin/requests", s.authenticated(s.createRequest))
	mux.HandleFunc("GET /api/admin/requests/me", s.authenticated(s.myRequests))
	mux.HandleFunc("GET /api/admin/requests", s.admin(s.allRequests))
	mux.HandleFunc("PUT /api/admin/requests/{id}", s.admin(s.respondRequest))

	mux.HandleFunc("GET /api/idea-generation/count", s.authenticated(s.ideaQuota))
	mux.HandleFunc("GET /api/idea-generation/submissions", s.admin(s.ideaSubmissions))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondDetail(r.Context(), w, http.StatusNotFound, "Not Found")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
