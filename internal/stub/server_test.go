package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tyforge/client/internal/models"
)

const (
	adminEmail    = "admin@tyforge.test"
	adminPassword = "admin-secret"
)

func newTestServer(t *testing.T, loginRate int) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(NewStore(), Options{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		LoginRate:     loginRate,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, req)
}

func upload(t *testing.T, ts *httptest.Server, path, token, filename string, data []byte, fields map[string]string) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func detailOf(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode detail from %s: %v", body, err)
	}
	return env.Detail
}

func signup(t *testing.T, ts *httptest.Server, email string) models.TokenResponse {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/api/auth/signup", "", models.SignupRequest{
		Email: email, Password: "password123", Name: "Student", Phone: "9000000000",
	})
	if status != http.StatusOK {
		t.Fatalf("signup status %d: %s", status, body)
	}
	var resp models.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	return resp
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: email, Password: password})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, body)
	}
	var resp models.TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.AccessToken
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, ts := newTestServer(t, 0)

	status, body := call(t, ts, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: adminEmail, Password: "nope"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if got := detailOf(t, body); got != "Incorrect email or password" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	_, ts := newTestServer(t, 0)
	signup(t, ts, "a@example.com")

	status, body := call(t, ts, http.MethodPost, "/api/auth/signup", "", models.SignupRequest{Email: "A@example.com", Password: "password123"})
	if status != http.StatusBadRequest || detailOf(t, body) != "Email already registered" {
		t.Fatalf("expected duplicate rejection, got %d %s", status, body)
	}
}

func TestAuthRules(t *testing.T) {
	_, ts := newTestServer(t, 0)
	student := signup(t, ts, "s@example.com")

	if status, body := call(t, ts, http.MethodGet, "/api/users/me", "", nil); status != http.StatusUnauthorized || detailOf(t, body) != "Not authenticated" {
		t.Fatalf("expected 401 without token, got %d %s", status, body)
	}
	if status, _ := call(t, ts, http.MethodGet, "/api/users/me", "garbage", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", status)
	}
	if status, body := call(t, ts, http.MethodGet, "/api/users/", student.AccessToken, nil); status != http.StatusForbidden || detailOf(t, body) != "Not enough permissions" {
		t.Fatalf("expected 403 for student on admin route, got %d %s", status, body)
	}

	admin := login(t, ts, adminEmail, adminPassword)
	status, body := call(t, ts, http.MethodGet, "/api/users/", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("expected admin list, got %d", status)
	}
	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil || len(users) != 2 {
		t.Fatalf("expected 2 users, got %v (%v)", users, err)
	}
}

func TestTokenForDeletedUserIsRejected(t *testing.T) {
	_, ts := newTestServer(t, 0)
	student := signup(t, ts, "gone@example.com")
	admin := login(t, ts, adminEmail, adminPassword)

	if status, _ := call(t, ts, http.MethodDelete, "/api/users/"+student.User.ID, admin, nil); status != http.StatusOK {
		t.Fatalf("delete status %d", status)
	}
	status, body := call(t, ts, http.MethodGet, "/api/users/me", student.AccessToken, nil)
	if status != http.StatusUnauthorized || detailOf(t, body) != "User not found" {
		t.Fatalf("expected 401 for deleted user, got %d %s", status, body)
	}
}

func TestLoginRateLimit(t *testing.T) {
	_, ts := newTestServer(t, 1)

	call(t, ts, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "x@example.com", Password: "x"})
	status, body := call(t, ts, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "x@example.com", Password: "x"})
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", status)
	}
	if detailOf(t, body) == "" {
		t.Fatal("expected detail on rate limited response")
	}
}

func TestPaymentAndDownloadFlow(t *testing.T) {
	_, ts := newTestServer(t, 0)
	student := signup(t, ts, "pay@example.com")
	admin := login(t, ts, adminEmail, adminPassword)
	uid := student.User.ID

	status, body := call(t, ts, http.MethodPost, "/api/select-plan", student.AccessToken, map[string]string{"plan_id": "standard"})
	if status != http.StatusOK {
		t.Fatalf("select plan %d: %s", status, body)
	}
	var order models.Order
	_ = json.Unmarshal(body, &order)
	if order.Status != models.OrderPending || order.Amount != 5000 {
		t.Fatalf("unexpected order %+v", order)
	}

	if status, _ := upload(t, ts, "/api/admin/upload-project", admin, "final.zip", []byte("PK"), map[string]string{"user_id": uid}); status != http.StatusOK {
		t.Fatalf("upload project status %d", status)
	}

	if status, body := call(t, ts, http.MethodGet, "/api/admin/download-project/"+uid, student.AccessToken, nil); status != http.StatusPaymentRequired {
		t.Fatalf("expected 402 before payment, got %d %s", status, body)
	}

	if status, body := call(t, ts, http.MethodPost, "/api/payment/admin/orders/"+order.ID+"/approve", admin, nil); status != http.StatusBadRequest || detailOf(t, body) != "No payment proof uploaded" {
		t.Fatalf("expected approval without proof to fail, got %d %s", status, body)
	}
	if status, body := upload(t, ts, "/api/payment/orders/"+order.ID+"/proof", student.AccessToken, "proof.gif", []byte("GIF"), nil); status != http.StatusBadRequest {
		t.Fatalf("expected gif to be rejected, got %d %s", status, body)
	}
	if status, _ := upload(t, ts, "/api/payment/orders/"+order.ID+"/proof", student.AccessToken, "proof.png", []byte("PNG"), nil); status != http.StatusOK {
		t.Fatalf("proof upload status %d", status)
	}
	if status, _ := call(t, ts, http.MethodPost, "/api/payment/admin/orders/"+order.ID+"/approve", admin, nil); status != http.StatusOK {
		t.Fatalf("approve status %d", status)
	}

	if status, body := call(t, ts, http.MethodGet, "/api/admin/download-project/"+uid, student.AccessToken, nil); status != http.StatusForbidden || detailOf(t, body) != "Project access not yet approved by admin" {
		t.Fatalf("expected 403 before approval, got %d %s", status, body)
	}
	if status, _ := call(t, ts, http.MethodPost, "/api/admin/share-project-url", admin, map[string]any{"user_id": uid, "project_url": "https://example.com/p", "approved": true}); status != http.StatusOK {
		t.Fatalf("share status %d", status)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/admin/download-project/"+uid, nil)
	req.Header.Set("Authorization", "Bearer "+student.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(data) != "PK" {
		t.Fatalf("unexpected download %d %q", resp.StatusCode, data)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename=final.zip` {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestShareRequiresCompletedPayment(t *testing.T) {
	_, ts := newTestServer(t, 0)
	student := signup(t, ts, "share@example.com")
	admin := login(t, ts, adminEmail, adminPassword)

	status, body := call(t, ts, http.MethodPost, "/api/admin/share-project-url", admin, map[string]any{"user_id": student.User.ID, "project_url": "u", "approved": true})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", status, body)
	}
	status, _ = call(t, ts, http.MethodPost, "/api/admin/share-project-url", admin, map[string]any{"user_id": student.User.ID, "approved": false})
	if status != http.StatusOK {
		t.Fatalf("expected revoke to succeed, got %d", status)
	}
}

func TestMeetingOwnership(t *testing.T) {
	_, ts := newTestServer(t, 0)
	owner := signup(t, ts, "owner@example.com")
	other := signup(t, ts, "other@example.com")

	status, body := call(t, ts, http.MethodPost, "/api/meetings/", owner.AccessToken, map[string]any{
		"title": "One-on-One Session", "meeting_date": "2026-01-05T07:30:00Z",
	})
	if status != http.StatusOK {
		t.Fatalf("book status %d: %s", status, body)
	}
	var m models.Meeting
	_ = json.Unmarshal(body, &m)
	if m.MeetingDate == nil || !m.MeetingDate.Equal(time.Date(2026, 1, 5, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected meeting date %v", m.MeetingDate)
	}

	if status, _ := call(t, ts, http.MethodDelete, "/api/meetings/"+m.ID, other.AccessToken, nil); status != http.StatusNotFound {
		t.Fatalf("expected other student to get 404, got %d", status)
	}
	if status, _ := call(t, ts, http.MethodDelete, "/api/meetings/"+m.ID, owner.AccessToken, nil); status != http.StatusOK {
		t.Fatalf("expected owner delete, got %d", status)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	_, ts := newTestServer(t, 0)
	status, body := call(t, ts, http.MethodGet, "/api/nope", "", nil)
	if status != http.StatusNotFound || detailOf(t, body) != "Not Found" {
		t.Fatalf("expected 404 envelope, got %d %s", status, body)
	}
}
