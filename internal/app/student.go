package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/views"
)

const dayLayout = "2006-01-02"

func (c *cli) dashboard(ctx context.Context, args []string) error {
	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenDashboard(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}
	return views.RenderDashboard(c.out, p.Data, c.clock())
}

func (c *cli) projects(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("projects " + verb)
	dir := fs.String("dir", c.cfg.DownloadDir, "directory to save into")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenProjects(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		return views.RenderProjects(c.out, p.Data)
	case "download":
		path, err := p.DownloadArchive(*dir)
		if err != nil {
			return result(p, err)
		}
		fmt.Fprintln(c.out, path)
		return nil
	case "blackbook":
		path, err := p.DownloadBlackbook(*dir)
		if err != nil {
			return result(p, err)
		}
		fmt.Fprintln(c.out, path)
		return nil
	default:
		return fmt.Errorf("unknown projects command %q", verb)
	}
}

func (c *cli) meet(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("meet " + verb)
	day := fs.String("date", "", "day of the session, YYYY-MM-DD")
	slot := fs.String("slot", "", "time slot, HH:MM")
	night := fs.Bool("night", false, "request the night service")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenMeet(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		return views.RenderMeetings(c.out, p.Meetings, c.zone())
	case "slots":
		return views.RenderSlots(c.out, p.Window())
	case "book":
		if *day == "" {
			return fmt.Errorf("meet book: -date is required")
		}
		when, err := time.ParseInLocation(dayLayout, *day, c.zone())
		if err != nil {
			return fmt.Errorf("meet book: invalid -date: %w", err)
		}
		return mutated(p, p.Book(when, *slot, *night))
	case "delete":
		id, err := arg(fs, 0, "meeting id")
		if err != nil {
			return err
		}
		return mutated(p, p.Delete(id))
	default:
		return fmt.Errorf("unknown meet command %q", verb)
	}
}

func (c *cli) synopsis(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("synopsis " + verb)
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenSynopsis(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		return views.RenderSynopses(c.out, p.Synopses)
	case "upload":
		path, err := arg(fs, 0, "PDF file")
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return mutated(p, p.Upload(path, f))
	default:
		return fmt.Errorf("unknown synopsis command %q", verb)
	}
}

func (c *cli) payment(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("payment " + verb)
	orderID := fs.String("order", "", "order to pay; defaults to the pending order")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if verb == "plans" {
		plans, err := d.API.Plans(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReported, d.Reporter.Error(err, "Failed to load plans"))
		}
		return views.RenderPlans(c.out, plans)
	}

	p := d.Env.OpenPayment(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		return views.RenderOrders(c.out, p.Orders)
	case "select":
		planID, err := arg(fs, 0, "plan id")
		if err != nil {
			return err
		}
		return mutated(p, p.SelectPlan(planID))
	case "proof":
		path, err := arg(fs, 0, "screenshot file")
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return mutated(p, p.SubmitProof(*orderID, path, f))
	default:
		return fmt.Errorf("unknown payment command %q", verb)
	}
}

func (c *cli) help(ctx context.Context, args []string) error {
	verb, rest := sub(args, "list")
	fs := c.flags("help " + verb)
	subject := fs.String("subject", "", "short summary")
	message := fs.String("message", "", "what you need help with")
	kind := fs.String("type", "", "request type, e.g. general or technical")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenHelp(ctx)
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}

	switch verb {
	case "list":
		return views.RenderRequests(c.out, p.Requests)
	case "request":
		return mutated(p, p.Create(api.HelpRequest{Subject: *subject, Description: *message, RequestType: *kind}))
	default:
		return fmt.Errorf("unknown help command %q", verb)
	}
}

func (c *cli) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *cli) zone() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.Local
}
