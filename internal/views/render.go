package views

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tyforge/client/internal/models"
)

const dateLayout = "Jan 2, 2006"

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

// Money formats a rupee amount with thousands separators.
func Money(amount int) string {
	return "₹" + humanize.Comma(int64(amount))
}

// FileSize renders a byte count reported by the backend. Values that are not a
// plain number are shown as-is.
func FileSize(raw string) string {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return raw
	}
	return humanize.Bytes(n)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderDashboard writes the student dashboard.
func RenderDashboard(w io.Writer, d Dashboard, now time.Time) error {
	fmt.Fprintf(w, "Welcome back, %s\n\n", d.User.Name)
	fmt.Fprintf(w, "Projects: %d  Orders: %d  Meetings: %d  Requests: %d\n\n",
		len(d.Projects), len(d.Orders), len(d.Meetings), len(d.Requests))
	if d.PendingOrder != nil {
		fmt.Fprintf(w, "Payment pending: %s (%s)\n\n", d.PendingOrder.PlanName, Money(d.PendingOrder.Amount))
	}
	if len(d.Recent) == 0 {
		_, err := fmt.Fprintln(w, "No recent activity")
		return err
	}
	tw := table(w, "ACTIVITY", "STATUS", "WHEN")
	for _, a := range d.Recent {
		row(tw, a.Title, a.Status, humanize.RelTime(a.At, now, "ago", "from now"))
	}
	return tw.Flush()
}

// RenderProjects writes the student's projects with their progress.
func RenderProjects(w io.Writer, m MyProjects) error {
	if plan, ok := m.PaidPlan(); ok {
		fmt.Fprintf(w, "Plan: %s (%s)\n\n", plan.PlanName, Money(plan.Amount))
	}
	tw := table(w, "ID", "TITLE", "STATUS", "PROGRESS", "DOWNLOAD", "CREATED")
	for _, p := range m.Projects {
		download := "no"
		if m.CanDownload(p) {
			download = "yes"
		}
		row(tw, p.ID, p.Title, p.Status, fmt.Sprintf("%d%%", p.ProgressPercent()), download, date(p.CreatedAt))
	}
	return tw.Flush()
}

// RenderMeetings writes a meeting list in loc.
func RenderMeetings(w io.Writer, meetings []models.Meeting, loc *time.Location) error {
	tw := table(w, "ID", "TITLE", "WHEN", "STATUS", "LINK")
	for _, m := range meetings {
		when := "-"
		if m.MeetingDate != nil {
			when = m.MeetingDate.In(loc).Format("Jan 2, 2006 15:04")
		}
		row(tw, m.ID, m.Title, when, m.Status, orDash(m.MeetingLink))
	}
	return tw.Flush()
}

// RenderSlots writes the bookable slots, eight per line.
func RenderSlots(w io.Writer, window Window) error {
	fmt.Fprintf(w, "Booking window: %s to %s\n", date(window.Start), date(window.End))
	slots := TimeSlots()
	for i := 0; i < len(slots); i += 8 {
		end := min(i+8, len(slots))
		if _, err := fmt.Fprintln(w, strings.Join(slots[i:end], " ")); err != nil {
			return err
		}
	}
	return nil
}

// RenderSynopses writes a synopsis list.
func RenderSynopses(w io.Writer, items []models.Synopsis) error {
	tw := table(w, "ID", "FILE", "SIZE", "STATUS", "NOTES", "UPLOADED")
	for _, s := range items {
		row(tw, s.ID, s.OriginalName, FileSize(s.FileSize), s.Status, orDash(s.AdminNotes), date(s.CreatedAt))
	}
	return tw.Flush()
}

// RenderOrders writes an order list.
func RenderOrders(w io.Writer, orders []models.Order) error {
	tw := table(w, "ID", "PLAN", "AMOUNT", "STATUS", "CREATED")
	for _, o := range orders {
		row(tw, o.ID, o.PlanName, Money(o.Amount), o.Status, date(o.CreatedAt))
	}
	return tw.Flush()
}

// RenderStudents writes one line per student of the admin grid.
func RenderStudents(w io.Writer, students []Student) error {
	tw := table(w, "ID", "NAME", "EMAIL", "PLAN", "AMOUNT", "PAID", "PROJECTS", "SYNOPSIS", "MEETINGS", "IDEAS")
	for _, s := range students {
		paid := "no"
		if s.HasPaid {
			paid = "yes"
		}
		row(tw, s.User.ID, s.User.Name, s.User.Email, s.Stats.PlanName, Money(s.Stats.PlanAmount), paid,
			strconv.Itoa(s.Stats.TotalProjects), strconv.Itoa(len(s.Synopses)),
			strconv.Itoa(len(s.Meetings)), strconv.Itoa(len(s.Ideas)))
	}
	return tw.Flush()
}

// RenderUsers writes one row per account.
func RenderUsers(w io.Writer, users []models.User) error {
	tw := table(w, "ID", "NAME", "EMAIL", "PHONE", "ROLE", "JOINED")
	for _, u := range users {
		role := "student"
		if u.IsAdmin {
			role = "admin"
		}
		row(tw, u.ID, u.Name, u.Email, orDash(u.Phone), role, date(u.CreatedAt))
	}
	return tw.Flush()
}

// RenderIdeas writes idea submissions followed by the weekly count.
func RenderIdeas(w io.Writer, ideas []models.IdeaSubmission, thisWeek int) error {
	tw := table(w, "NAME", "PHONE", "INTERESTS", "GENERATIONS", "CREATED")
	for _, idea := range ideas {
		row(tw, idea.Name, idea.Phone, idea.Interests, strconv.Itoa(idea.GenerationCount), date(idea.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d submissions, %d this week\n", len(ideas), thisWeek)
	return err
}

// RenderRequests writes help requests.
func RenderRequests(w io.Writer, requests []models.AdminRequest) error {
	tw := table(w, "ID", "SUBJECT", "TYPE", "STATUS", "RESPONSE", "CREATED")
	for _, r := range requests {
		row(tw, r.ID, r.Subject, r.RequestType, r.Status, orDash(r.AdminResponse), date(r.CreatedAt))
	}
	return tw.Flush()
}

// RenderPlans writes the purchasable plans.
func RenderPlans(w io.Writer, plans []models.Plan) error {
	tw := table(w, "ID", "PLAN", "PRICE", "DESCRIPTION")
	for _, p := range plans {
		row(tw, p.ID, p.Name, Money(p.Price), orDash(p.Description))
	}
	return tw.Flush()
}

// RenderStats writes the platform counters of the admin dashboard.
func RenderStats(w io.Writer, s models.AdminStats) error {
	_, err := fmt.Fprintf(w, "Users: %d  Projects: %d  Orders: %d  Pending synopsis: %d  Pending requests: %d\n",
		s.TotalUsers, s.TotalProjects, s.TotalOrders, s.PendingSynopsis, s.PendingRequests)
	return err
}
