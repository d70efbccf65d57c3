package views

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/notify"
)

func TestMyProjectsDownloadNeedsPaymentAndApproval(t *testing.T) {
	approved := models.Project{ID: "p1", URLApproved: true}
	hidden := models.Project{ID: "p2"}

	unpaid := MyProjects{Orders: []models.Order{{Status: "pending"}}}
	assert.False(t, unpaid.CanDownload(approved))

	for _, status := range []string{"paid", "completed"} {
		paid := MyProjects{Orders: []models.Order{{Status: "pending"}, {Status: status}}}
		assert.True(t, paid.CanDownload(approved), status)
		assert.False(t, paid.CanDownload(hidden), status)
	}
}

func TestProjectsDownloadArchive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: "u1"})
	})
	mux.HandleFunc("GET /api/projects/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Project{{ID: "p1", URLApproved: true}})
	})
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Order{{ID: "o1", Status: "paid"}})
	})
	mux.HandleFunc("GET /api/admin/download-project/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "u1" {
			detail(w, http.StatusForbidden, "Not allowed")
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK"))
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenProjects(context.Background())
	defer page.Close()
	require.True(t, page.Ready())

	dir := t.TempDir()
	path, err := page.DownloadArchive(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, api.ProjectArchiveName))
	assert.FileExists(t, path)
	assert.Equal(t, 0, page.View().Blobs().Live())
}

func TestSynopsisUploadRejectsNonPDF(t *testing.T) {
	var listed atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/synopsis/me", counted(&listed, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Synopsis{})
	}))
	mux.HandleFunc("POST /api/synopsis/upload", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.Synopsis{ID: "s1"})
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenSynopsis(context.Background())
	defer page.Close()

	out := page.Upload("notes.docx", strings.NewReader("x"))
	assert.ErrorIs(t, out.Err, ErrNotPDF)
	assert.Equal(t, int32(1), listed.Load())

	require.NoError(t, page.Upload("Synopsis.PDF", strings.NewReader("%PDF")).Err)
	assert.Equal(t, int32(2), listed.Load())
}

func TestPaymentProofUsesPendingOrder(t *testing.T) {
	got := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Order{{ID: "o1", Status: "completed"}, {ID: "o2", Status: "pending"}})
	})
	mux.HandleFunc("POST /api/payment/orders/{id}/proof", func(w http.ResponseWriter, r *http.Request) {
		got <- r.PathValue("id")
		writeJSON(w, http.StatusOK, models.Order{ID: r.PathValue("id"), Status: "paid"})
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenPayment(context.Background())
	defer page.Close()

	assert.ErrorIs(t, page.SubmitProof("", "proof.gif", strings.NewReader("x")).Err, ErrProofType)
	require.NoError(t, page.SubmitProof("", "proof.JPEG", strings.NewReader("x")).Err)
	assert.Equal(t, "o2", <-got)
}

func TestFilterIdeas(t *testing.T) {
	ideas := []models.IdeaSubmission{
		{ID: "1", Name: "Asha Rao", Phone: "98450 11111", Interests: "Machine Learning"},
		{ID: "2", Name: "Ravi", Phone: "98450 22222", Interests: "web apps"},
	}

	ids := func(in []models.IdeaSubmission) []string {
		var out []string
		for _, i := range in {
			out = append(out, i.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2"}, ids(FilterIdeas(ideas, "  ")))
	assert.Equal(t, []string{"1"}, ids(FilterIdeas(ideas, "asha")))
	assert.Equal(t, []string{"1"}, ids(FilterIdeas(ideas, "LEARNING")))
	assert.Equal(t, []string{"2"}, ids(FilterIdeas(ideas, "22222")))
	assert.Empty(t, FilterIdeas(ideas, "golang"))
}

func TestIdeasThisWeek(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/idea-generation/submissions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.IdeaSubmission{
			{ID: "1", CreatedAt: now.Add(-time.Hour)},
			{ID: "2", CreatedAt: now.AddDate(0, 0, -7)},
			{ID: "3", CreatedAt: now.AddDate(0, 0, -8)},
		})
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeAdmin: "adm"})
	f.env.Now = func() time.Time { return now }

	page := f.env.OpenIdeas(context.Background())
	defer page.Close()

	assert.Len(t, page.Ideas, 3)
	assert.Equal(t, 2, page.ThisWeek())
}

func TestHelpCreateValidatesAndDefaultsType(t *testing.T) {
	got := make(chan api.HelpRequest, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/requests/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.AdminRequest{})
	})
	mux.HandleFunc("POST /api/admin/requests", func(w http.ResponseWriter, r *http.Request) {
		var req api.HelpRequest
		_ = jsonDecode(r, &req)
		got <- req
		writeJSON(w, http.StatusOK, models.AdminRequest{ID: "r1"})
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenHelp(context.Background())
	defer page.Close()

	assert.ErrorIs(t, page.Create(api.HelpRequest{Subject: " "}).Err, ErrEmptyRequest)
	require.NoError(t, page.Create(api.HelpRequest{Subject: "Access", Description: "Cannot download"}).Err)
	assert.Equal(t, api.HelpRequest{Subject: "Access", Description: "Cannot download", RequestType: "general"}, <-got)
	assert.Equal(t, []string{"Request submitted successfully!"}, f.recorder.Messages(notify.LevelSuccess))
}

func TestRenderUsersOneRowPerUser(t *testing.T) {
	users := []models.User{
		{ID: "u1", Name: "Asha", Email: "asha@example.com"},
		{ID: "u2", Name: "Admin", Email: "admin@example.com", IsAdmin: true},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderUsers(&buf, users))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "asha@example.com")
	assert.Contains(t, lines[2], "admin")
}

func TestMoneyAndFileSize(t *testing.T) {
	assert.Equal(t, "₹4,999", Money(4999))
	assert.Equal(t, "2.0 MB", FileSize("2000000"))
	assert.Equal(t, "1.2 MB", FileSize("1.2 MB"))
}
