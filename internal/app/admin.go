package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/views"
)

func (c *cli) admin(ctx context.Context, args []string) error {
	verb, rest := sub(args, "")
	switch verb {
	case "login":
		return c.loginScope(ctx, auth.ScopeAdmin, rest)
	case "users":
		return c.adminUsers(ctx, rest)
	case "ideas":
		return c.adminIdeas(ctx, rest)
	case "requests", "respond":
		return c.adminRequests(ctx, verb, rest)
	case "students", "approve-payment", "proof", "update-project", "share",
		"upload-project", "update-synopsis", "synopsis", "meeting":
		return c.adminStudents(ctx, verb, rest)
	case "":
		return fmt.Errorf("admin: expected a command")
	default:
		return fmt.Errorf("unknown admin command %q", verb)
	}
}

func (c *cli) adminUsers(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("admin users " + verb)
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenUsers(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		if err := views.RenderStats(c.out, p.Stats); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
		return views.RenderUsers(c.out, p.Users)
	case "delete":
		id, err := arg(fs, 0, "user id")
		if err != nil {
			return err
		}
		return mutated(p, p.Delete(id))
	default:
		return fmt.Errorf("unknown admin users command %q", verb)
	}
}

func (c *cli) adminIdeas(ctx context.Context, args []string) error {
	fs := c.flags("admin ideas")
	query := fs.String("q", "", "filter by name, phone or interests")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenIdeas(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}
	return views.RenderIdeas(c.out, p.Search(*query), p.ThisWeek())
}

func (c *cli) adminRequests(ctx context.Context, verb string, args []string) error {
	fs := c.flags("admin " + verb)
	all := fs.Bool("all", false, "include resolved requests")
	status := fs.String("status", "resolved", "new status of the request")
	response := fs.String("response", "", "reply shown to the student")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenRequests(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	if verb == "requests" {
		if *all {
			return views.RenderRequests(c.out, p.Requests)
		}
		return views.RenderRequests(c.out, p.Open())
	}
	id, err := arg(fs, 0, "request id")
	if err != nil {
		return err
	}
	return mutated(p, p.Respond(id, *status, *response))
}

func (c *cli) adminStudents(ctx context.Context, verb string, args []string) error {
	fs := c.flags("admin " + verb)
	userID := fs.String("user", "", "student id")
	status := fs.String("status", "", "new status")
	notes := fs.String("notes", "", "admin notes")
	projectURL := fs.String("url", "", "project link")
	revoke := fs.Bool("revoke", false, "revoke access instead of granting it")
	dir := fs.String("dir", c.cfg.DownloadDir, "directory to save into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenStudents(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "students":
		if *userID == "" {
			return views.RenderStudents(c.out, p.Students)
		}
		s, ok := p.Find(*userID)
		if !ok {
			return fmt.Errorf("student %q not found", *userID)
		}
		return c.renderStudent(s)

	case "approve-payment":
		id, err := arg(fs, 0, "order id")
		if err != nil {
			return err
		}
		return mutated(p, p.ApprovePayment(id))

	case "proof":
		id, err := arg(fs, 0, "order id")
		if err != nil {
			return err
		}
		h, err := p.PreviewProof(id)
		if err != nil {
			return result(p, err)
		}
		defer h.Release()
		path, err := h.SaveAs(*dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, path)
		return nil

	case "update-project":
		id, err := arg(fs, 0, "project id")
		if err != nil {
			return err
		}
		return mutated(p, p.UpdateProject(id, api.ProjectUpdate{Status: *status, AdminNotes: *notes, ProjectURL: *projectURL}))

	case "share":
		id, err := arg(fs, 0, "student id")
		if err != nil {
			return err
		}
		return mutated(p, p.ShareProjectURL(id, *projectURL, !*revoke))

	case "upload-project":
		id, err := arg(fs, 0, "student id")
		if err != nil {
			return err
		}
		path, err := arg(fs, 1, "archive file")
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return mutated(p, p.UploadProjectFile(id, path, f))

	case "update-synopsis":
		id, err := arg(fs, 0, "synopsis id")
		if err != nil {
			return err
		}
		if *status == "" {
			return fmt.Errorf("admin update-synopsis: -status is required")
		}
		return mutated(p, p.UpdateSynopsis(id, *status, *notes))

	case "synopsis":
		id, err := arg(fs, 0, "synopsis id")
		if err != nil {
			return err
		}
		path, err := p.DownloadSynopsis(id, *dir)
		if err != nil {
			return result(p, err)
		}
		fmt.Fprintln(c.out, path)
		return nil

	case "meeting":
		id, err := arg(fs, 0, "meeting id")
		if err != nil {
			return err
		}
		if *status == "" {
			return fmt.Errorf("admin meeting: -status is required")
		}
		meeting, ok := findMeeting(p.Students, id)
		if !ok {
			return fmt.Errorf("meeting %q not found", id)
		}
		return mutated(p, p.SetMeetingStatus(meeting, *status))
	}
	return fmt.Errorf("unknown admin command %q", verb)
}

func (c *cli) renderStudent(s views.Student) error {
	fmt.Fprintf(c.out, "%s <%s> %s\nPlan: %s (%s), paid: %t\n\n",
		displayName(s.User), s.User.Email, s.User.Phone, s.Stats.PlanName, views.Money(s.Stats.PlanAmount), s.HasPaid)

	sections := []struct {
		title  string
		render func() error
	}{
		{"Projects", func() error { return views.RenderProjects(c.out, views.MyProjects{User: s.User, Projects: s.Projects, Orders: s.Orders}) }},
		{"Orders", func() error { return views.RenderOrders(c.out, s.Orders) }},
		{"Synopsis", func() error { return views.RenderSynopses(c.out, s.Synopses) }},
		{"Meetings", func() error { return views.RenderMeetings(c.out, s.Meetings, c.zone()) }},
		{"Ideas", func() error { return views.RenderIdeas(c.out, s.Ideas, 0) }},
	}
	for _, section := range sections {
		fmt.Fprintf(c.out, "%s\n%s\n", section.title, strings.Repeat("-", len(section.title)))
		if err := section.render(); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
	}
	return nil
}

func findMeeting(students []views.Student, id string) (models.Meeting, bool) {
	for _, s := range students {
		for _, m := range s.Meetings {
			if m.ID == id {
				return m, true
			}
		}
	}
	return models.Meeting{}, false
}
