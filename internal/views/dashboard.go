package views

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/session"
)

// Activity is one entry of the dashboard's recent activity feed.
type Activity struct {
	Kind   string
	Title  string
	Status string
	At     time.Time
}

// Dashboard is the student's home page data.
type Dashboard struct {
	User     models.User
	Projects []models.Project
	Orders   []models.Order
	Meetings []models.Meeting
	Requests []models.AdminRequest
	Recent   []Activity
	// PendingOrder is the first order still awaiting payment, if any.
	PendingOrder *models.Order
}

// LoadDashboard fetches the current user, then projects, orders, meetings and
// help requests concurrently. Each of the four defaults to empty on failure; the
// merge runs only once all of them settled.
func LoadDashboard(ctx context.Context, client *api.Client) (Dashboard, error) {
	user, err := client.Me(ctx, auth.ScopeUser)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{User: user}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		d.Projects, err = orEmpty(gctx, "projects", client.MyProjects)
		return err
	})
	group.Go(func() (err error) {
		d.Orders, err = orEmpty(gctx, "orders", client.MyOrders)
		return err
	})
	group.Go(func() (err error) {
		d.Meetings, err = orEmpty(gctx, "meetings", client.MyMeetings)
		return err
	})
	group.Go(func() (err error) {
		d.Requests, err = orEmpty(gctx, "help requests", client.MyHelpRequests)
		return err
	})
	if err := group.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Recent = RecentActivity(d.Projects, d.Orders)
	if pending, ok := models.FirstPendingOrder(d.Orders); ok {
		d.PendingOrder = &pending
	}
	return d, nil
}

// RecentActivity merges the first three projects and first two orders, newest
// first, capped at five entries.
func RecentActivity(projects []models.Project, orders []models.Order) []Activity {
	var feed []Activity
	for i, p := range projects {
		if i == 3 {
			break
		}
		feed = append(feed, Activity{Kind: "project", Title: p.Title, Status: p.Status, At: p.CreatedAt})
	}
	for i, o := range orders {
		if i == 2 {
			break
		}
		feed = append(feed, Activity{Kind: "order", Title: "Order #" + o.ID, Status: o.Status, At: o.CreatedAt})
	}
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > 5 {
		feed = feed[:5]
	}
	return feed
}

// DashboardPage is the guarded student dashboard.
type DashboardPage struct {
	page
	Data Dashboard
}

// OpenDashboard guards and loads the dashboard.
func (e *Env) OpenDashboard(ctx context.Context) *DashboardPage {
	p := &DashboardPage{page: e.newPage(ctx, "dashboard", auth.ScopeUser)}
	p.open("Failed to load dashboard", p.reload)
	return p
}

func (p *DashboardPage) reload(ctx context.Context) error {
	d, err := LoadDashboard(ctx, p.env.API)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Data = d })
	return nil
}

// Refresh reloads the dashboard after a change made elsewhere.
func (p *DashboardPage) Refresh() session.State {
	if err := p.reload(p.ctx()); err != nil {
		return p.guard.Handle(p.view, err, "Failed to load dashboard")
	}
	return p.State()
}
