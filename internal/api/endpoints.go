package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
)

// Fallback download names used when the backend omits Content-Disposition.
const (
	ProjectArchiveName = "project.zip"
	BlackbookName      = "blackbook.pdf"
	SynopsisName       = "synopsis.pdf"
	PaymentProofName   = "payment-proof"
)

// Login exchanges credentials for an access token. The call is unauthenticated;
// storing the token is up to the caller.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenResponse, error) {
	var out models.TokenResponse
	err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   JSON(models.LoginRequest{Email: email, Password: password}),
	}, &out)
	return out, err
}

// Signup creates a student account and returns its first token.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.TokenResponse, error) {
	var out models.TokenResponse
	err := c.Do(ctx, Call{Method: http.MethodPost, Path: "/api/auth/signup", Body: JSON(req)}, &out)
	return out, err
}

// Me returns the principal behind the scope's token.
func (c *Client) Me(ctx context.Context, scope auth.Scope) (models.User, error) {
	var out models.User
	err := c.Do(ctx, Call{Path: "/api/users/me", Scope: scope}, &out)
	return out, err
}

// ProfileUpdate is the editable part of the current user's profile.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// UpdateMe edits the current user's profile.
func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (models.User, error) {
	var out models.User
	err := c.Do(ctx, Call{Method: http.MethodPut, Path: "/api/users/me", Body: JSON(update), Scope: auth.ScopeUser}, &out)
	return out, err
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.Do(ctx, Call{Path: "/api/users/", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.Do(ctx, Call{Method: http.MethodDelete, Path: "/api/users/" + userID, Scope: auth.ScopeAdmin, Expect: ExpectNone}, nil)
}

// AdminStats returns the headline counters of the admin dashboard.
func (c *Client) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var out models.AdminStats
	err := c.Do(ctx, Call{Path: "/api/admin/stats", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// MyProjects lists the current student's projects.
func (c *Client) MyProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.Do(ctx, Call{Path: "/api/projects/me", Scope: auth.ScopeUser}, &out)
	return out, err
}

// AllProjects lists every project. Admin only.
func (c *Client) AllProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := c.Do(ctx, Call{Path: "/api/projects/all", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// ProjectUpdate is a partial project update. Only set fields are sent.
type ProjectUpdate struct {
	Status      string
	AdminNotes  string
	ProjectURL  string
	URLApproved *bool
}

func (u ProjectUpdate) values() url.Values {
	q := url.Values{}
	if u.Status != "" {
		q.Set("status", u.Status)
	}
	if u.AdminNotes != "" {
		q.Set("admin_notes", u.AdminNotes)
	}
	if u.ProjectURL != "" {
		q.Set("project_url", u.ProjectURL)
	}
	if u.URLApproved != nil {
		q.Set("url_approved", strconv.FormatBool(*u.URLApproved))
	}
	return q
}

// UpdateProject applies a query-string encoded partial update. Admin only.
func (c *Client) UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) (models.Project, error) {
	var out models.Project
	err := c.Do(ctx, Call{
		Method: http.MethodPut,
		Path:   "/api/admin/update-project/" + projectID,
		Query:  update.values(),
		Scope:  auth.ScopeAdmin,
	}, &out)
	return out, err
}

// ShareProjectURL grants or revokes a student's access to the delivered project
// link. Admin only.
func (c *Client) ShareProjectURL(ctx context.Context, userID, projectURL string, approved bool) error {
	return c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/admin/share-project-url",
		Body: JSON(map[string]any{
			"user_id":     userID,
			"project_url": projectURL,
			"approved":    approved,
		}),
		Scope:  auth.ScopeAdmin,
		Expect: ExpectNone,
	}, nil)
}

// DownloadProjectArchive fetches the project zip of userID using the scope's
// token: students download their own, admins any.
func (c *Client) DownloadProjectArchive(ctx context.Context, scope auth.Scope, userID string) (Blob, error) {
	return c.Download(ctx, Call{Path: "/api/admin/download-project/" + userID, Scope: scope}, ProjectArchiveName)
}

// DownloadBlackbook fetches the current student's final report.
func (c *Client) DownloadBlackbook(ctx context.Context) (Blob, error) {
	return c.Download(ctx, Call{Path: "/api/blackbook/download", Scope: auth.ScopeUser}, BlackbookName)
}

// MyOrders lists the current student's orders.
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.Do(ctx, Call{Path: "/api/orders/me", Scope: auth.ScopeUser}, &out)
	return out, err
}

// AllOrders lists every order. Admin only.
func (c *Client) AllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.Do(ctx, Call{Path: "/api/orders/all", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// Plans lists the purchasable plans. No token is needed.
func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var out []models.Plan
	err := c.Do(ctx, Call{Path: "/api/plans/"}, &out)
	return out, err
}

// SelectPlan creates a pending order for planID.
func (c *Client) SelectPlan(ctx context.Context, planID string) (models.Order, error) {
	var out models.Order
	err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/select-plan",
		Body:   JSON(map[string]string{"plan_id": planID}),
		Scope:  auth.ScopeUser,
	}, &out)
	return out, err
}

// UploadSynopsis sends a synopsis document as multipart field "file".
func (c *Client) UploadSynopsis(ctx context.Context, filename string, content io.Reader) (models.Synopsis, error) {
	var out models.Synopsis
	err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/synopsis/upload",
		Body:   Multipart(nil, FilePart{Field: "file", Filename: filename, Content: content}),
		Scope:  auth.ScopeUser,
	}, &out)
	return out, err
}

// MySynopses lists the current student's synopses.
func (c *Client) MySynopses(ctx context.Context) ([]models.Synopsis, error) {
	var out []models.Synopsis
	err := c.Do(ctx, Call{Path: "/api/synopsis/me", Scope: auth.ScopeUser}, &out)
	return out, err
}

// AllSynopses lists every synopsis. Admin only.
func (c *Client) AllSynopses(ctx context.Context) ([]models.Synopsis, error) {
	var out []models.Synopsis
	err := c.Do(ctx, Call{Path: "/api/synopsis/all", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// UpdateSynopsis sets the review status and notes of a synopsis. Admin only.
func (c *Client) UpdateSynopsis(ctx context.Context, synopsisID, status, notes string) (models.Synopsis, error) {
	q := url.Values{}
	q.Set("status", status)
	if notes != "" {
		q.Set("admin_notes", notes)
	}
	var out models.Synopsis
	err := c.Do(ctx, Call{
		Method: http.MethodPut,
		Path:   "/api/synopsis/admin/" + synopsisID,
		Query:  q,
		Scope:  auth.ScopeAdmin,
	}, &out)
	return out, err
}

// DownloadSynopsis fetches a synopsis document. Admin only.
func (c *Client) DownloadSynopsis(ctx context.Context, synopsisID string) (Blob, error) {
	return c.Download(ctx, Call{Path: "/api/synopsis/admin/download/" + synopsisID, Scope: auth.ScopeAdmin}, SynopsisName)
}

// MeetingRequest books a mentoring session.
type MeetingRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MeetingDate time.Time `json:"meeting_date"`
}

// BookMeeting requests a mentoring session for the current student.
func (c *Client) BookMeeting(ctx context.Context, req MeetingRequest) (models.Meeting, error) {
	req.MeetingDate = req.MeetingDate.UTC()
	var out models.Meeting
	err := c.Do(ctx, Call{Method: http.MethodPost, Path: "/api/meetings/", Body: JSON(req), Scope: auth.ScopeUser}, &out)
	return out, err
}

// MyMeetings lists the current student's meetings.
func (c *Client) MyMeetings(ctx context.Context) ([]models.Meeting, error) {
	var out []models.Meeting
	err := c.Do(ctx, Call{Path: "/api/meetings/me", Scope: auth.ScopeUser}, &out)
	return out, err
}

// AllMeetings lists every meeting. Admin only.
func (c *Client) AllMeetings(ctx context.Context) ([]models.Meeting, error) {
	var out []models.Meeting
	err := c.Do(ctx, Call{Path: "/api/meetings/all", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// UpdateMeetingStatus approves, rejects or completes a meeting. Admin only.
func (c *Client) UpdateMeetingStatus(ctx context.Context, meetingID, status string) (models.Meeting, error) {
	var out models.Meeting
	err := c.Do(ctx, Call{
		Method: http.MethodPut,
		Path:   "/api/meetings/" + meetingID,
		Body:   JSON(map[string]string{"status": status}),
		Scope:  auth.ScopeAdmin,
	}, &out)
	return out, err
}

// DeleteMeeting removes a meeting with the scope's token.
func (c *Client) DeleteMeeting(ctx context.Context, scope auth.Scope, meetingID string) error {
	return c.Do(ctx, Call{Method: http.MethodDelete, Path: "/api/meetings/" + meetingID, Scope: scope, Expect: ExpectNone}, nil)
}

// SubmitPaymentProof uploads a payment screenshot for a pending order.
func (c *Client) SubmitPaymentProof(ctx context.Context, orderID, filename string, content io.Reader) (models.Order, error) {
	var out models.Order
	err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/payment/orders/" + orderID + "/proof",
		Body:   Multipart(nil, FilePart{Field: "file", Filename: filename, Content: content}),
		Scope:  auth.ScopeUser,
	}, &out)
	return out, err
}

// PaymentProof downloads the proof attached to an order. Admin only.
func (c *Client) PaymentProof(ctx context.Context, orderID string) (Blob, error) {
	return c.Download(ctx, Call{Path: "/api/payment/admin/orders/" + orderID + "/proof", Scope: auth.ScopeAdmin}, PaymentProofName)
}

// ApprovePayment marks an order's payment as verified. Admin only.
func (c *Client) ApprovePayment(ctx context.Context, orderID string) (models.Order, error) {
	var out models.Order
	err := c.Do(ctx, Call{Method: http.MethodPost, Path: "/api/payment/admin/orders/" + orderID + "/approve", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// HelpRequest is the payload of a new help request.
type HelpRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	RequestType string `json:"request_type"`
}

// CreateHelpRequest raises a help request for the admin team.
func (c *Client) CreateHelpRequest(ctx context.Context, req HelpRequest) (models.AdminRequest, error) {
	var out models.AdminRequest
	err := c.Do(ctx, Call{Method: http.MethodPost, Path: "/api/admin/requests", Body: JSON(req), Scope: auth.ScopeUser}, &out)
	return out, err
}

// MyHelpRequests lists the current student's help requests.
func (c *Client) MyHelpRequests(ctx context.Context) ([]models.AdminRequest, error) {
	var out []models.AdminRequest
	err := c.Do(ctx, Call{Path: "/api/admin/requests/me", Scope: auth.ScopeUser}, &out)
	return out, err
}

// AllHelpRequests lists every help request. Admin only.
func (c *Client) AllHelpRequests(ctx context.Context) ([]models.AdminRequest, error) {
	var out []models.AdminRequest
	err := c.Do(ctx, Call{Path: "/api/admin/requests", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// RespondHelpRequest sets the status and admin response of a help request.
func (c *Client) RespondHelpRequest(ctx context.Context, requestID, status, response string) (models.AdminRequest, error) {
	var out models.AdminRequest
	err := c.Do(ctx, Call{
		Method: http.MethodPut,
		Path:   "/api/admin/requests/" + requestID,
		Body:   JSON(map[string]string{"status": status, "admin_response": response}),
		Scope:  auth.ScopeAdmin,
	}, &out)
	return out, err
}

// IdeaQuota reports the current student's remaining idea generations.
func (c *Client) IdeaQuota(ctx context.Context) (models.IdeaQuota, error) {
	var out models.IdeaQuota
	err := c.Do(ctx, Call{Path: "/api/idea-generation/count", Scope: auth.ScopeUser}, &out)
	return out, err
}

// IdeaSubmissions lists every generated idea, guests included. Admin only.
func (c *Client) IdeaSubmissions(ctx context.Context) ([]models.IdeaSubmission, error) {
	var out []models.IdeaSubmission
	err := c.Do(ctx, Call{Path: "/api/idea-generation/submissions", Scope: auth.ScopeAdmin}, &out)
	return out, err
}

// UploadProjectFile attaches the delivered project archive to a student. Admin only.
func (c *Client) UploadProjectFile(ctx context.Context, userID, filename string, content io.Reader) error {
	return c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/admin/upload-project",
		Body:   Multipart(map[string]string{"user_id": userID}, FilePart{Field: "file", Filename: filename, Content: content}),
		Scope:  auth.ScopeAdmin,
		Expect: ExpectNone,
	}, nil)
}
