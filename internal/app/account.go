package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
)

// errNotAdmin is returned by admin login for a student account.
var errNotAdmin = errors.New("access denied: admin privileges required")

func (c *cli) login(ctx context.Context, args []string) error {
	return c.loginScope(ctx, auth.ScopeUser, args)
}

// loginScope exchanges credentials for a token and stores it under scope. The
// admin scope only accepts accounts flagged is_admin.
func (c *cli) loginScope(ctx context.Context, scope auth.Scope, args []string) error {
	fs := c.flags(string(scope) + " login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("login: -email is required")
	}
	pw, err := c.password(*password)
	if err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := d.API.Login(ctx, strings.TrimSpace(*email), pw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReported, d.Reporter.Error(err, "Login failed"))
	}
	if scope == auth.ScopeAdmin && !resp.User.IsAdmin {
		return fmt.Errorf("%w: %w", ErrReported, d.Reporter.Error(errNotAdmin, "Login failed"))
	}

	if err := c.storeSession(ctx, d.Tokens, scope, resp); err != nil {
		return err
	}
	d.Reporter.Success(fmt.Sprintf("Logged in as %s", displayName(resp.User)))
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := c.flags("signup")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password; read from stdin when empty")
	name := fs.String("name", "", "full name")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pw, err := c.password(*password)
	if err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := d.API.Signup(ctx, models.SignupRequest{
		Email:    strings.TrimSpace(*email),
		Password: pw,
		Name:     strings.TrimSpace(*name),
		Phone:    strings.TrimSpace(*phone),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReported, d.Reporter.Error(err, "Signup failed"))
	}
	if err := c.storeSession(ctx, d.Tokens, auth.ScopeUser, resp); err != nil {
		return err
	}
	d.Reporter.Success("Account created successfully!")
	return nil
}

// storeSession saves the token and the cached profile: the user id for
// students, the serialized user for admins.
func (c *cli) storeSession(ctx context.Context, tokens *auth.Provider, scope auth.Scope, resp models.TokenResponse) error {
	if err := tokens.Set(ctx, scope, resp.AccessToken); err != nil {
		return err
	}
	profile := resp.User.ID
	if scope == auth.ScopeAdmin {
		raw, err := json.Marshal(resp.User)
		if err != nil {
			return fmt.Errorf("encode admin profile: %w", err)
		}
		profile = string(raw)
	}
	return tokens.SetProfile(ctx, scope, profile)
}

// password returns the flag value or the first line of stdin.
func (c *cli) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	fs := c.flags("logout")
	admin := fs.Bool("admin", false, "end the admin session instead of the student one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	scope := auth.ScopeUser
	if *admin {
		scope = auth.ScopeAdmin
	}
	if err := d.Tokens.Clear(ctx, scope); err != nil {
		return err
	}
	d.Reporter.Info("Logged out")
	return nil
}

func (c *cli) me(ctx context.Context, args []string) error {
	fs := c.flags("me")
	admin := fs.Bool("admin", false, "show the admin session")
	if err := fs.Parse(args); err != nil {
		return err
	}
	scope := auth.ScopeUser
	if *admin {
		scope = auth.ScopeAdmin
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := c.principal(ctx, d, scope)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n%s\n", displayName(user), user.Email)
	if user.Phone != "" {
		fmt.Fprintln(c.out, user.Phone)
	}
	if user.IsAdmin {
		fmt.Fprintln(c.out, "admin")
	}
	return nil
}

// principal fetches the user behind scope through its guard.
func (c *cli) principal(ctx context.Context, d dependencies, scope auth.Scope) (models.User, error) {
	var user models.User
	p := d.Env.OpenFunc(ctx, "me", scope, "Failed to load profile", func(ctx context.Context) (err error) {
		user, err = d.API.Me(ctx, scope)
		return err
	})
	defer p.Close()
	return user, check(p)
}

func (c *cli) profile(ctx context.Context, args []string) error {
	fs := c.flags("profile")
	name := fs.String("name", "", "new display name")
	phone := fs.String("phone", "", "new phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" && *phone == "" {
		return errors.New("profile: set -name or -phone")
	}

	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	p := d.Env.OpenFunc(ctx, "profile", auth.ScopeUser, "Failed to load profile", func(ctx context.Context) error {
		_, err := d.API.Me(ctx, auth.ScopeUser)
		return err
	})
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}
	return mutated(p, p.Mutate("update profile", "Profile updated", "Failed to update profile",
		func(ctx context.Context) error {
			_, err := d.API.UpdateMe(ctx, api.ProfileUpdate{Name: strings.TrimSpace(*name), Phone: strings.TrimSpace(*phone)})
			return err
		}))
}

func (c *cli) ideaQuota(ctx context.Context, args []string) error {
	d, cleanup, err := c.buildDependencies(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var quota models.IdeaQuota
	p := d.Env.OpenFunc(ctx, "ideas", auth.ScopeUser, "Failed to load idea quota", func(ctx context.Context) (err error) {
		quota, err = d.API.IdeaQuota(ctx)
		return err
	})
	defer p.Close()
	if err := check(p); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d of %d idea generations used, %d remaining\n", quota.Count, quota.Max, quota.Remaining)
	return nil
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
