package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/models"
)

func meetingCreated(m *models.Meeting) time.Time { return m.CreatedAt }

func (s *Server) bookMeeting(w http.ResponseWriter, r *http.Request, user models.User) {
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		MeetingDate *time.Time `json:"meeting_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "title is required")
		return
	}

	s.store.mu.Lock()
	now := s.store.now()
	m := &models.Meeting{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		MeetingDate: req.MeetingDate,
		Status:      models.MeetingRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.store.meetings = append(s.store.meetings, m)
	out := *m
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) myMeetings(w http.ResponseWriter, r *http.Request, user models.User) {
	s.store.mu.RLock()
	out := copies(s.store.meetings, func(m *models.Meeting) bool { return m.UserID == user.ID }, meetingCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) allMeetings(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.meetings, nil, meetingCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) updateMeeting(w http.ResponseWriter, r *http.Request, _ models.User) {
	var req struct {
		Status      string `json:"status"`
		MeetingLink string `json:"meeting_link"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Status == "" {
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "status is required")
		return
	}

	s.store.mu.Lock()
	m, found := find(s.store.meetings, func(m *models.Meeting) bool { return m.ID == r.PathValue("id") })
	var out models.Meeting
	if found {
		m.Status = req.Status
		if req.MeetingLink != "" {
			m.MeetingLink = req.MeetingLink
		}
		m.UpdatedAt = s.store.now()
		out = *m
	}
	s.store.mu.Unlock()

	if !found {
		respondDetail(r.Context(), w, http.StatusNotFound, "Meeting not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// deleteMeeting lets students remove their own meetings and admins any.
func (s *Server) deleteMeeting(w http.ResponseWriter, r *http.Request, user models.User) {
	id := r.PathValue("id")
	s.store.mu.Lock()
	_, found := find(s.store.meetings, func(m *models.Meeting) bool {
		return m.ID == id && (user.IsAdmin || m.UserID == user.ID)
	})
	if found {
		s.store.meetings = without(s.store.meetings, func(m *models.Meeting) bool { return m.ID == id })
	}
	s.store.mu.Unlock()

	if !found {
		respondDetail(r.Context(), w, http.StatusNotFound, "Meeting not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"message": "Meeting deleted successfully"})
}
