package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/models"
)

func requestCreated(r *models.AdminRequest) time.Time { return r.CreatedAt }

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request, user models.User) {
	var req struct {
		Subject     string `json:"subject"`
		Description string `json:"description"`
		RequestType string `json:"request_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "subject and description are required")
		return
	}

	s.store.mu.Lock()
	now := s.store.now()
	ar := &models.AdminRequest{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Subject:     req.Subject,
		Description: req.Description,
		RequestType: req.RequestType,
		Status:      models.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.store.requests = append(s.store.requests, ar)
	out := *ar
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) myRequests(w http.ResponseWriter, r *http.Request, user models.User) {
	s.store.mu.RLock()
	out := copies(s.store.requests, func(ar *models.AdminRequest) bool { return ar.UserID == user.ID }, requestCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) allRequests(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.requests, nil, requestCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) respondRequest(w http.ResponseWriter, r *http.Request, _ models.User) {
	var req struct {
		Status        string `json:"status"`
		AdminResponse string `json:"admin_response"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Status == "" {
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "status is required")
		return
	}

	s.store.mu.Lock()
	ar, found := find(s.store.requests, func(ar *models.AdminRequest) bool { return ar.ID == r.PathValue("id") })
	var out models.AdminRequest
	if found {
		ar.Status = req.Status
		ar.AdminResponse = req.AdminResponse
		ar.UpdatedAt = s.store.now()
		out = *ar
	}
	s.store.mu.Unlock()

	if !found {
		respondDetail(r.Context(), w, http.StatusNotFound, "Request not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) ideaQuota(w http.ResponseWriter, r *http.Request, user models.User) {
	count := s.store.ideaCount(user.ID)
	respondJSON(r.Context(), w, http.StatusOK, models.IdeaQuota{
		Count:       count,
		Max:         maxIdeaGenerations,
		Remaining:   max(maxIdeaGenerations-count, 0),
		CanGenerate: count < maxIdeaGenerations,
	})
}

func (s *Server) ideaSubmissions(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.ideas, nil, func(i *models.IdeaSubmission) time.Time { return i.CreatedAt })
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}
