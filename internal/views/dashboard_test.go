package views

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/notify"
	"github.com/tyforge/client/internal/session"
)

func TestRecentActivityMergesAndCaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	projects := []models.Project{
		{Title: "p1", Status: "in_progress", CreatedAt: base.Add(1 * time.Hour)},
		{Title: "p2", Status: "completed", CreatedAt: base.Add(5 * time.Hour)},
		{Title: "p3", Status: "idea_pending", CreatedAt: base.Add(3 * time.Hour)},
		{Title: "p4", Status: "idea_pending", CreatedAt: base.Add(9 * time.Hour)},
	}
	orders := []models.Order{
		{ID: "7", Status: "pending", CreatedAt: base.Add(4 * time.Hour)},
		{ID: "8", Status: "paid", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "9", Status: "paid", CreatedAt: base.Add(8 * time.Hour)},
	}

	feed := RecentActivity(projects, orders)

	require.Len(t, feed, 5)
	var titles []string
	for _, a := range feed {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"p2", "Order #7", "p3", "Order #8", "p1"}, titles)
}

func TestDashboardDefaultsOptionalFetchesToEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: "u1", Name: "Asha"})
	})
	mux.HandleFunc("GET /api/projects/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Project{{ID: "p1", Title: "Vision"}})
	})
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		detail(w, http.StatusInternalServerError, "boom")
	})
	mux.HandleFunc("GET /api/meetings/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	})
	mux.HandleFunc("GET /api/admin/requests/me", func(w http.ResponseWriter, _ *http.Request) {
		detail(w, http.StatusNotFound, "Not Found")
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenDashboard(context.Background())
	defer page.Close()

	assert.Equal(t, session.Ready{}, page.State())
	assert.Equal(t, "Asha", page.Data.User.Name)
	assert.Len(t, page.Data.Projects, 1)
	assert.NotNil(t, page.Data.Orders)
	assert.Empty(t, page.Data.Orders)
	assert.Empty(t, page.Data.Meetings)
	assert.Empty(t, page.Data.Requests)
	assert.Nil(t, page.Data.PendingOrder)
	assert.Empty(t, f.recorder.Notifications())
}

func TestDashboardAuthFailureClearsAndRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: "u1"})
	})
	mux.HandleFunc("GET /api/projects/me", func(w http.ResponseWriter, _ *http.Request) {
		detail(w, http.StatusUnauthorized, "Could not validate credentials")
	})
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Order{})
	})
	mux.HandleFunc("GET /api/meetings/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Meeting{})
	})
	mux.HandleFunc("GET /api/admin/requests/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.AdminRequest{})
	})
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok", auth.ScopeAdmin: "adm"})

	page := f.env.OpenDashboard(context.Background())
	defer page.Close()

	assert.Equal(t, session.Redirecting{Target: session.UserLoginPath, Cleared: true}, page.State())
	assert.Equal(t, []string{session.UserLoginPath}, f.redirects.all())
	assert.False(t, f.tokens.Authenticated(context.Background(), auth.ScopeUser))
	assert.True(t, f.tokens.Authenticated(context.Background(), auth.ScopeAdmin))
}

func TestDashboardForbiddenProfileStopsBeforeOtherFetches(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", counted(&requests, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/users/me" {
			detail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	}))
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenDashboard(context.Background())
	defer page.Close()

	assert.Equal(t, session.Redirecting{Target: session.UserLoginPath, Cleared: true}, page.State())
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, []string{session.UserLoginPath}, f.redirects.all())
	assert.False(t, f.tokens.Authenticated(context.Background(), auth.ScopeUser))
	assert.Empty(t, f.recorder.Messages(notify.LevelError))
}

func TestDashboardPendingOrderPrompt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: "u1"})
	})
	mux.HandleFunc("GET /api/orders/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Order{{ID: "1", Status: "paid"}, {ID: "2", Status: "pending"}, {ID: "3", Status: "pending"}})
	})
	for _, path := range []string{"/api/projects/me", "/api/meetings/me", "/api/admin/requests/me"} {
		mux.HandleFunc("GET "+path, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		})
	}
	f := newFixture(t, mux, map[auth.Scope]string{auth.ScopeUser: "tok"})

	page := f.env.OpenDashboard(context.Background())
	defer page.Close()

	require.NotNil(t, page.Data.PendingOrder)
	assert.Equal(t, "2", page.Data.PendingOrder.ID)
	assert.Empty(t, f.recorder.Messages(notify.LevelError))
}
