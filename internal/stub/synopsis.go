package stub

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/models"
)

func synopsisCreated(s *models.Synopsis) time.Time { return s.CreatedAt }

func (s *Server) uploadSynopsis(w http.ResponseWriter, r *http.Request, user models.User) {
	f, ok := readFormFile(w, r)
	if !ok {
		return
	}
	if !strings.EqualFold(filepath.Ext(f.name), ".pdf") {
		respondDetail(r.Context(), w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}
	f.contentType = "application/pdf"

	s.store.mu.Lock()
	now := s.store.now()
	sy := &models.Synopsis{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		OriginalName: f.name,
		FileSize:     strconv.Itoa(len(f.data)),
		Status:       models.SynopsisPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.store.synopses = append(s.store.synopses, sy)
	s.store.synFiles[sy.ID] = f
	if acct, ok := s.store.accounts[user.ID]; ok {
		acct.user.HasSynopsis = true
	}
	out := *sy
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) mySynopses(w http.ResponseWriter, r *http.Request, user models.User) {
	s.store.mu.RLock()
	out := copies(s.store.synopses, func(sy *models.Synopsis) bool { return sy.UserID == user.ID }, synopsisCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) allSynopses(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.synopses, nil, synopsisCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// reviewSynopsis reads status and admin_notes from the query string.
func (s *Server) reviewSynopsis(w http.ResponseWriter, r *http.Request, _ models.User) {
	q := r.URL.Query()
	status := q.Get("status")
	switch status {
	case models.SynopsisPending, models.SynopsisApproved, models.SynopsisRejected:
	default:
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "status must be Pending, Approved or Rejected")
		return
	}

	s.store.mu.Lock()
	sy, found := find(s.store.synopses, func(sy *models.Synopsis) bool { return sy.ID == r.PathValue("id") })
	var out models.Synopsis
	if found {
		sy.Status = status
		if q.Has("admin_notes") {
			sy.AdminNotes = q.Get("admin_notes")
		}
		sy.UpdatedAt = s.store.now()
		out = *sy
	}
	s.store.mu.Unlock()

	if !found {
		respondDetail(r.Context(), w, http.StatusNotFound, "Synopsis not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) downloadSynopsis(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	f, ok := s.store.synFiles[r.PathValue("id")]
	s.store.mu.RUnlock()
	if !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "Synopsis not found")
		return
	}
	respondFile(w, f)
}
