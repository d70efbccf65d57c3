package stub

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/models"
)

// maxUpload bounds multipart bodies accepted by the stand-in.
const maxUpload = 32 << 20

func projectCreated(p *models.Project) time.Time { return p.CreatedAt }

func (s *Server) myProjects(w http.ResponseWriter, r *http.Request, user models.User) {
	s.store.mu.RLock()
	out := copies(s.store.projects, func(p *models.Project) bool { return p.UserID == user.ID }, projectCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) allProjects(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.projects, nil, projectCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// updateProject applies the query string fields that are present.
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, _ models.User) {
	q := r.URL.Query()
	var approved *bool
	if raw := q.Get("url_approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "url_approved must be a boolean")
			return
		}
		approved = &v
	}

	s.store.mu.Lock()
	p, ok := find(s.store.projects, func(p *models.Project) bool { return p.ID == r.PathValue("id") })
	if ok {
		if q.Has("status") {
			p.Status = q.Get("status")
		}
		if q.Has("admin_notes") {
			p.AdminNotes = q.Get("admin_notes")
		}
		if q.Has("project_url") {
			p.ProjectURL = q.Get("project_url")
		}
		if approved != nil {
			p.URLApproved = *approved
		}
		p.UpdatedAt = s.store.now()
	}
	var out models.Project
	if ok {
		out = *p
	}
	s.store.mu.Unlock()

	if !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "Project not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// shareProjectURL grants access only to students with a completed payment.
// Revoking is always allowed.
func (s *Server) shareProjectURL(w http.ResponseWriter, r *http.Request, _ models.User) {
	var req struct {
		UserID     string `json:"user_id"`
		ProjectURL string `json:"project_url"`
		Approved   bool   `json:"approved"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := s.store.user(req.UserID); !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "User not found")
		return
	}

	s.store.mu.Lock()
	hasPaid := s.store.hasCompletedOrder(req.UserID)
	if req.Approved && !hasPaid {
		s.store.mu.Unlock()
		respondDetail(r.Context(), w, http.StatusForbidden, "Student must complete payment before accessing project")
		return
	}
	now := s.store.now()
	p, ok := find(s.store.projects, func(p *models.Project) bool { return p.UserID == req.UserID })
	switch {
	case ok && req.Approved:
		p.ProjectURL = req.ProjectURL
		p.URLApproved = true
		p.UpdatedAt = now
	case ok:
		p.URLApproved = false
		p.UpdatedAt = now
	case req.Approved:
		s.store.projects = append(s.store.projects, &models.Project{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			Title:       "Shared Project",
			Description: "Project shared by admin",
			ProjectURL:  req.ProjectURL,
			URLApproved: true,
			Status:      models.ProjectCompleted,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message":     "Project URL updated successfully",
		"approved":    req.Approved,
		"has_payment": hasPaid,
	})
}

// uploadProject stores the delivered archive of a student.
func (s *Server) uploadProject(w http.ResponseWriter, r *http.Request, _ models.User) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	userID := r.FormValue("user_id")
	if _, ok := s.store.user(userID); !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "User not found")
		return
	}
	f, ok := readFormFile(w, r)
	if !ok {
		return
	}
	if f.contentType == "" || f.contentType == "application/octet-stream" {
		f.contentType = "application/zip"
	}

	s.store.mu.Lock()
	now := s.store.now()
	s.store.archives[userID] = f
	p, found := find(s.store.projects, func(p *models.Project) bool { return p.UserID == userID })
	if !found {
		p = &models.Project{ID: uuid.NewString(), UserID: userID, Title: "Project", Status: models.ProjectInProgress, CreatedAt: now}
		s.store.projects = append(s.store.projects, p)
	}
	p.ProjectFilePath = "projects/" + userID + filepath.Ext(f.name)
	p.ProjectFileOriginalName = f.name
	p.UpdatedAt = now
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"message": "Project uploaded successfully", "filename": f.name})
}

// downloadProject serves a student's archive. Students need a completed payment
// and admin approval; admins may download any archive.
func (s *Server) downloadProject(w http.ResponseWriter, r *http.Request, user models.User) {
	userID := r.PathValue("user_id")

	s.store.mu.RLock()
	hasPaid := s.store.hasCompletedOrder(user.ID)
	p, found := find(s.store.projects, func(p *models.Project) bool { return p.UserID == userID && p.ProjectFilePath != "" })
	var approved bool
	if found {
		approved = p.URLApproved
	}
	archive, stored := s.store.archives[userID]
	s.store.mu.RUnlock()

	switch {
	case !hasPaid && !user.IsAdmin:
		respondDetail(r.Context(), w, http.StatusPaymentRequired, "Payment required to download project files")
	case !user.IsAdmin && userID != user.ID:
		respondDetail(r.Context(), w, http.StatusForbidden, "Not enough permissions")
	case !found:
		respondDetail(r.Context(), w, http.StatusNotFound, "Project file not found")
	case !approved && !user.IsAdmin:
		respondDetail(r.Context(), w, http.StatusForbidden, "Project access not yet approved by admin")
	case !stored:
		respondDetail(r.Context(), w, http.StatusNotFound, "File not found on server")
	default:
		respondFile(w, archive)
	}
}

func (s *Server) downloadBlackbook(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	bb := s.store.blackbook
	s.store.mu.RUnlock()
	if bb == nil {
		respondDetail(r.Context(), w, http.StatusNotFound, "BlackBook not found")
		return
	}
	respondFile(w, *bb)
}

// readFormFile reads the "file" part of a parsed multipart form.
func readFormFile(w http.ResponseWriter, r *http.Request) (file, bool) {
	part, header, err := r.FormFile("file")
	if err != nil {
		respondDetail(r.Context(), w, http.StatusUnprocessableEntity, "file is required")
		return file{}, false
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		respondDetail(r.Context(), w, http.StatusBadRequest, "failed to read upload")
		return file{}, false
	}
	return file{name: filepath.Base(header.Filename), contentType: header.Header.Get("Content-Type"), data: data}, true
}
