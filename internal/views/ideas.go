package views

import (
	"context"
	"strings"
	"time"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
)

// FilterIdeas keeps submissions whose name or interests contain query, ignoring
// case, or whose phone contains it verbatim. An empty query keeps everything.
func FilterIdeas(ideas []models.IdeaSubmission, query string) []models.IdeaSubmission {
	query = strings.TrimSpace(query)
	if query == "" {
		return ideas
	}
	lower := strings.ToLower(query)
	out := make([]models.IdeaSubmission, 0, len(ideas))
	for _, idea := range ideas {
		if strings.Contains(strings.ToLower(idea.Name), lower) ||
			strings.Contains(strings.ToLower(idea.Interests), lower) ||
			strings.Contains(idea.Phone, query) {
			out = append(out, idea)
		}
	}
	return out
}

// CountSince counts submissions created at or after since.
func CountSince(ideas []models.IdeaSubmission, since time.Time) int {
	n := 0
	for _, idea := range ideas {
		if !idea.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

// IdeasPage is the guarded admin list of generated ideas.
type IdeasPage struct {
	page
	Ideas []models.IdeaSubmission
}

// OpenIdeas guards and loads every idea submission.
func (e *Env) OpenIdeas(ctx context.Context) *IdeasPage {
	p := &IdeasPage{page: e.newPage(ctx, "admin-ideas", auth.ScopeAdmin)}
	p.open("Failed to load idea submissions", func(ctx context.Context) error {
		ideas, err := e.API.IdeaSubmissions(ctx)
		if err != nil {
			return err
		}
		p.view.Apply(func() { p.Ideas = ideas })
		return nil
	})
	return p
}

// Search applies FilterIdeas to the loaded submissions.
func (p *IdeasPage) Search(query string) []models.IdeaSubmission {
	return FilterIdeas(p.Ideas, query)
}

// ThisWeek counts submissions of the last seven days.
func (p *IdeasPage) ThisWeek() int {
	return CountSince(p.Ideas, p.env.now().AddDate(0, 0, -7))
}
