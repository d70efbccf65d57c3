package views

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/blob"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

const noPlanName = "No Plan"

// StudentStats are the per-student counters shown on a grid card.
type StudentStats struct {
	TotalProjects int
	PlanName      string
	PlanAmount    int
}

// Student is one row of the admin students grid: a user joined with everything
// that belongs to them.
type Student struct {
	User     models.User
	Projects []models.Project
	Orders   []models.Order
	Synopses []models.Synopsis
	Meetings []models.Meeting
	Ideas    []models.IdeaSubmission
	// Plan is the first completed order, else the first order.
	Plan    *models.Order
	HasPaid bool
	Stats   StudentStats
}

// Collections are the admin-wide lists the students grid joins.
type Collections struct {
	Users    []models.User
	Projects []models.Project
	Orders   []models.Order
	Synopses []models.Synopsis
	Meetings []models.Meeting
	Ideas    []models.IdeaSubmission
}

// JoinStudents groups every collection per user. Records are matched by user_id;
// idea submissions without a user id match on phone number.
func JoinStudents(c Collections) []Student {
	students := make([]Student, 0, len(c.Users))
	for _, u := range c.Users {
		s := Student{User: u}
		for _, p := range c.Projects {
			if p.UserID == u.ID {
				s.Projects = append(s.Projects, p)
			}
		}
		for _, o := range c.Orders {
			if o.UserID == u.ID {
				s.Orders = append(s.Orders, o)
			}
		}
		for _, sy := range c.Synopses {
			if sy.UserID == u.ID {
				s.Synopses = append(s.Synopses, sy)
			}
		}
		for _, m := range c.Meetings {
			if m.UserID == u.ID {
				s.Meetings = append(s.Meetings, m)
			}
		}
		for _, idea := range c.Ideas {
			if idea.BelongsTo(u) {
				s.Ideas = append(s.Ideas, idea)
			}
		}

		s.Stats = StudentStats{TotalProjects: len(s.Projects), PlanName: noPlanName}
		if plan, ok := models.SelectPlan(s.Orders); ok {
			s.Plan = &plan
			s.HasPaid = plan.IsCompleted()
			if plan.PlanName != "" {
				s.Stats.PlanName = plan.PlanName
			}
			s.Stats.PlanAmount = plan.Amount
		}
		students = append(students, s)
	}
	return students
}

// LoadCollections runs the six admin fetches concurrently. Each one defaults to
// empty on a non-auth failure.
func LoadCollections(ctx context.Context, client *api.Client) (Collections, error) {
	var c Collections
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		c.Users, err = orEmpty(gctx, "users", client.ListUsers)
		return err
	})
	group.Go(func() (err error) {
		c.Projects, err = orEmpty(gctx, "projects", client.AllProjects)
		return err
	})
	group.Go(func() (err error) {
		c.Orders, err = orEmpty(gctx, "orders", client.AllOrders)
		return err
	})
	group.Go(func() (err error) {
		c.Synopses, err = orEmpty(gctx, "synopsis", client.AllSynopses)
		return err
	})
	group.Go(func() (err error) {
		c.Meetings, err = orEmpty(gctx, "meetings", client.AllMeetings)
		return err
	})
	group.Go(func() (err error) {
		c.Ideas, err = orEmpty(gctx, "idea submissions", client.IdeaSubmissions)
		return err
	})
	if err := group.Wait(); err != nil {
		return Collections{}, err
	}
	return c, nil
}

// StudentsPage is the guarded admin students grid.
type StudentsPage struct {
	page
	Students []Student
}

// OpenStudents guards and loads the students grid.
func (e *Env) OpenStudents(ctx context.Context) *StudentsPage {
	p := &StudentsPage{page: e.newPage(ctx, "admin-students", auth.ScopeAdmin)}
	p.open("Failed to load students", p.load)
	return p
}

func (p *StudentsPage) load(ctx context.Context) error {
	c, err := LoadCollections(ctx, p.env.API)
	if err != nil {
		return err
	}
	students := JoinStudents(c)
	p.view.Apply(func() { p.Students = students })
	return nil
}

// Find returns the grid row of userID.
func (p *StudentsPage) Find(userID string) (Student, bool) {
	for _, s := range p.Students {
		if s.User.ID == userID {
			return s, true
		}
	}
	return Student{}, false
}

func (p *StudentsPage) admin(name, success, failure string, do func(ctx context.Context) error) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name:    name,
		Do:      do,
		Success: success,
		Failure: failure,
		Refresh: []refresh.Refresher{{Name: "students", Fetch: p.load}},
	})
}

// UpdateProject changes a project's status and notes.
func (p *StudentsPage) UpdateProject(projectID string, update api.ProjectUpdate) refresh.Outcome {
	return p.admin("update project", "Project updated successfully!", "Failed to update project",
		func(ctx context.Context) error {
			_, err := p.env.API.UpdateProject(ctx, projectID, update)
			return err
		})
}

// UpdateSynopsis approves or rejects a synopsis.
func (p *StudentsPage) UpdateSynopsis(synopsisID, status, notes string) refresh.Outcome {
	return p.admin("update synopsis", fmt.Sprintf("Synopsis %s!", status), "Failed to update synopsis",
		func(ctx context.Context) error {
			_, err := p.env.API.UpdateSynopsis(ctx, synopsisID, status, notes)
			return err
		})
}

// ApprovePayment verifies the payment of an order.
func (p *StudentsPage) ApprovePayment(orderID string) refresh.Outcome {
	return p.admin("approve payment", "Payment approved!", "Failed to approve payment",
		func(ctx context.Context) error {
			_, err := p.env.API.ApprovePayment(ctx, orderID)
			return err
		})
}

// SetMeetingStatus approves or rejects a meeting request.
func (p *StudentsPage) SetMeetingStatus(meeting models.Meeting, status string) refresh.Outcome {
	return p.admin("update meeting", fmt.Sprintf("Meeting %q has been %s!", meeting.Title, status), "Failed to update meeting",
		func(ctx context.Context) error {
			_, err := p.env.API.UpdateMeetingStatus(ctx, meeting.ID, status)
			return err
		})
}

// ShareProjectURL grants or revokes a student's access to the project link.
func (p *StudentsPage) ShareProjectURL(userID, projectURL string, approved bool) refresh.Outcome {
	success := "Project URL shared!"
	if !approved {
		success = "Access revoked"
	}
	return p.admin("share project url", success, "Failed to update project access",
		func(ctx context.Context) error {
			return p.env.API.ShareProjectURL(ctx, userID, projectURL, approved)
		})
}

// UploadProjectFile attaches the delivered archive to a student.
func (p *StudentsPage) UploadProjectFile(userID, filename string, content io.Reader) refresh.Outcome {
	return p.admin("upload project file", "Project file uploaded!", "Failed to upload project file",
		func(ctx context.Context) error {
			return p.env.API.UploadProjectFile(ctx, userID, filepath.Base(filename), content)
		})
}

// PreviewProof fetches an order's payment proof into a temp file held by the
// page. The handle is released when the caller releases it or the page closes.
func (p *StudentsPage) PreviewProof(orderID string) (*blob.Handle, error) {
	proof, err := p.env.API.PaymentProof(p.ctx(), orderID)
	if err != nil {
		return nil, p.fail(err, "Failed to load payment proof")
	}
	h, err := p.view.Blobs().Acquire(proof)
	if err != nil {
		return nil, p.fail(err, "Failed to open payment proof")
	}
	return h, nil
}

// DownloadSynopsis saves a student's synopsis PDF into dir.
func (p *StudentsPage) DownloadSynopsis(synopsisID, dir string) (string, error) {
	doc, err := p.env.API.DownloadSynopsis(p.ctx(), synopsisID)
	if err != nil {
		return "", p.fail(err, "Failed to download synopsis")
	}
	path, err := saveBlob(p.view.Blobs(), doc, dir)
	if err != nil {
		return "", p.fail(err, "Failed to save synopsis")
	}
	return path, nil
}
