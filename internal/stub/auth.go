package stub

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/tyforge/client/internal/logging"
	"github.com/tyforge/client/internal/models"
)

const minPasswordLength = 8

// login handles POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondDetail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, ok := s.store.Authenticate(req.Email, req.Password)
	if !ok {
		logger.Warn("login rejected", "email", strings.ToLower(req.Email))
		respondDetail(ctx, w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	s.issue(w, r, http.StatusOK, user)
}

// signup handles POST /api/auth/signup.
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondDetail(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondDetail(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondDetail(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := s.store.CreateUser(req.Email, req.Password, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone), false)
	if errors.Is(err, errConflict) {
		respondDetail(ctx, w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		logger.Error("signup failed to create user", "error", err)
		respondDetail(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}
	s.issue(w, r, http.StatusOK, user)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, user models.User) {
	token, err := s.tokens.issue(user.ID, user.IsAdmin)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to sign token", "userId", user.ID, "error", err)
		respondDetail(r.Context(), w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(r.Context(), w, status, models.TokenResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, user models.User) {
	respondJSON(r.Context(), w, http.StatusOK, user)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, user models.User) {
	var req struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.store.updateUser(user.ID, func(u *models.User) {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			u.Phone = strings.TrimSpace(*req.Phone)
		}
	})
	if err != nil {
		respondDetail(r.Context(), w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, updated)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ models.User) {
	respondJSON(r.Context(), w, http.StatusOK, s.store.users())
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, _ models.User) {
	target, ok := s.store.user(r.PathValue("id"))
	if !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "User not found")
		return
	}
	if target.IsAdmin {
		respondDetail(r.Context(), w, http.StatusForbidden, "Cannot delete admin users")
		return
	}
	if err := s.store.deleteUser(target.ID); err != nil {
		respondDetail(r.Context(), w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request, _ models.User) {
	respondJSON(r.Context(), w, http.StatusOK, s.store.stats())
}
