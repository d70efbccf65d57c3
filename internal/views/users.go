package views

import (
	"context"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

// UsersPage is the guarded admin user list.
type UsersPage struct {
	page
	Users []models.User
	Stats models.AdminStats
}

// OpenUsers guards and loads every account plus the platform counters.
func (e *Env) OpenUsers(ctx context.Context) *UsersPage {
	p := &UsersPage{page: e.newPage(ctx, "admin-users", auth.ScopeAdmin)}
	p.open("Failed to load users", p.load)
	return p
}

func (p *UsersPage) load(ctx context.Context) error {
	users, err := p.env.API.ListUsers(ctx)
	if err != nil {
		return err
	}
	stats, err := p.env.API.AdminStats(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() {
		p.Users = users
		p.Stats = stats
	})
	return nil
}

// Delete removes an account and reloads the list.
func (p *UsersPage) Delete(userID string) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "delete user",
		Do: func(ctx context.Context) error {
			return p.env.API.DeleteUser(ctx, userID)
		},
		Success: "User deleted successfully",
		Failure: "Failed to delete user",
		Refresh: []refresh.Refresher{{Name: "users", Fetch: p.load}},
	})
}
