package models

import "time"

// User represents a student or administrator account as returned by the backend.
type User struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	IsAdmin             bool      `json:"is_admin"`
	SignupStep          string    `json:"signup_step,omitempty"`
	SelectedPlanID      *string   `json:"selected_plan_id,omitempty"`
	HasSynopsis         bool      `json:"has_synopsis"`
	NeedsIdeaGeneration bool      `json:"needs_idea_generation"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

// Project statuses.
const (
	ProjectIdeaPending     = "idea_pending"
	ProjectSynopsisPending = "synopsis_pending"
	ProjectInProgress      = "in_progress"
	ProjectCompleted       = "completed"
)

// Project is a student project tracked by the mentoring team.
type Project struct {
	ID                      string    `json:"id"`
	UserID                  string    `json:"user_id"`
	Title                   string    `json:"title"`
	Description             string    `json:"description,omitempty"`
	Category                string    `json:"category,omitempty"`
	TechStack               string    `json:"tech_stack,omitempty"`
	Status                  string    `json:"status"`
	ProjectURL              string    `json:"project_url,omitempty"`
	URLApproved             bool      `json:"url_approved"`
	AdminNotes              string    `json:"admin_notes,omitempty"`
	ProjectFilePath         string    `json:"project_file_path,omitempty"`
	ProjectFileOriginalName string    `json:"project_file_original_name,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCompleted = "completed"
)

// Order records a plan purchase and its payment verification state.
type Order struct {
	ID                       string     `json:"id"`
	UserID                   string     `json:"user_id"`
	PlanID                   *string    `json:"plan_id,omitempty"`
	PlanName                 string     `json:"plan_name"`
	Amount                   int        `json:"amount"`
	Status                   string     `json:"status"`
	ServiceType              string     `json:"service_type,omitempty"`
	PaymentProofOriginalName string     `json:"payment_proof_original_name,omitempty"`
	PaymentProofUploadedAt   *time.Time `json:"payment_proof_uploaded_at,omitempty"`
	PaymentVerifiedAt        *time.Time `json:"payment_verified_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Synopsis statuses.
const (
	SynopsisPending  = "Pending"
	SynopsisApproved = "Approved"
	SynopsisRejected = "Rejected"
)

// Synopsis is a student-submitted proposal document awaiting review.
type Synopsis struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProjectID    *string   `json:"project_id,omitempty"`
	OriginalName string    `json:"original_name"`
	FileSize     string    `json:"file_size,omitempty"`
	Status       string    `json:"status"`
	AdminNotes   string    `json:"admin_notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Meeting statuses.
const (
	MeetingRequested = "requested"
	MeetingApproved  = "approved"
	MeetingRejected  = "rejected"
	MeetingCompleted = "completed"
	MeetingCancelled = "cancelled"
)

// Meeting is a mentoring session requested by a student.
type Meeting struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	MeetingDate *time.Time `json:"meeting_date,omitempty"`
	MeetingLink string     `json:"meeting_link,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Help request statuses.
const (
	RequestPending    = "pending"
	RequestInProgress = "in_progress"
	RequestApproved   = "approved"
	RequestRejected   = "rejected"
	RequestResolved   = "resolved"
	RequestClosed     = "closed"
)

// AdminRequest is a help request raised by a student for the admin team.
type AdminRequest struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	RequestType   string    `json:"request_type"`
	Status        string    `json:"status"`
	AdminResponse string    `json:"admin_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IdeaSubmission is an AI-generated project idea, possibly submitted by a guest.
type IdeaSubmission struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Interests       string    `json:"interests"`
	GeneratedIdea   string    `json:"generated_idea"`
	GenerationCount int       `json:"generation_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Plan is a purchasable service plan.
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// IdeaQuota reports how many AI idea generations remain for a principal.
type IdeaQuota struct {
	Count       int  `json:"count"`
	Max         int  `json:"max"`
	Remaining   int  `json:"remaining"`
	CanGenerate bool `json:"can_generate"`
}

// LoginRequest is the credential payload accepted by /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the payload accepted by /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

// TokenResponse is returned by login and signup.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

// AdminStats summarises platform activity for the admin dashboard.
type AdminStats struct {
	TotalUsers      int `json:"total_users"`
	TotalProjects   int `json:"total_projects"`
	TotalOrders     int `json:"total_orders"`
	PendingSynopsis int `json:"pending_synopsis"`
	PendingRequests int `json:"pending_requests"`
}
