package views

import (
	"context"
	"errors"
	"strings"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

// ErrEmptyRequest is returned when a help request lacks a subject or description.
var ErrEmptyRequest = errors.New("please fill in the subject and description")

const defaultRequestType = "general"

// HelpPage lists the student's help requests and raises new ones.
type HelpPage struct {
	page
	Requests []models.AdminRequest
}

// OpenHelp guards and loads the student's help requests.
func (e *Env) OpenHelp(ctx context.Context) *HelpPage {
	p := &HelpPage{page: e.newPage(ctx, "help", auth.ScopeUser)}
	p.open("Failed to load requests", p.load)
	return p
}

func (p *HelpPage) load(ctx context.Context) error {
	requests, err := p.env.API.MyHelpRequests(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Requests = requests })
	return nil
}

// Create raises a help request and reloads the list.
func (p *HelpPage) Create(req api.HelpRequest) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "create help request",
		Do: func(ctx context.Context) error {
			if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Description) == "" {
				return ErrEmptyRequest
			}
			if req.RequestType == "" {
				req.RequestType = defaultRequestType
			}
			_, err := p.env.API.CreateHelpRequest(ctx, req)
			return err
		},
		Success: "Request submitted successfully!",
		Failure: "Failed to submit request",
		Refresh: []refresh.Refresher{{Name: "requests", Fetch: p.load}},
	})
}

// RequestsPage is the admin inbox of help requests.
type RequestsPage struct {
	page
	Requests []models.AdminRequest
}

// OpenRequests guards and loads every help request.
func (e *Env) OpenRequests(ctx context.Context) *RequestsPage {
	p := &RequestsPage{page: e.newPage(ctx, "admin-requests", auth.ScopeAdmin)}
	p.open("Failed to load requests", p.load)
	return p
}

func (p *RequestsPage) load(ctx context.Context) error {
	requests, err := p.env.API.AllHelpRequests(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Requests = requests })
	return nil
}

// Open returns the requests still awaiting a decision.
func (p *RequestsPage) Open() []models.AdminRequest {
	var out []models.AdminRequest
	for _, r := range p.Requests {
		if r.IsOpen() {
			out = append(out, r)
		}
	}
	return out
}

// Respond records the admin decision on a request.
func (p *RequestsPage) Respond(requestID, status, response string) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "respond help request",
		Do: func(ctx context.Context) error {
			_, err := p.env.API.RespondHelpRequest(ctx, requestID, status, response)
			return err
		},
		Success: "Request updated",
		Failure: "Failed to update request",
		Refresh: []refresh.Refresher{{Name: "requests", Fetch: p.load}},
	})
}
