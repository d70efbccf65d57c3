package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tyforge/client/internal/config"
	"github.com/tyforge/client/internal/logging"
	"github.com/tyforge/client/internal/refresh"
	"github.com/tyforge/client/internal/session"
)

// ErrReported is returned when the failure was already shown to the user as a
// notification, so the caller only needs to set the exit status.
var ErrReported = errors.New("command failed")

// ErrLoginRequired is returned when a command needs a session that is missing
// or was rejected by the backend.
var ErrLoginRequired = errors.New("please log in again")

const usage = `usage: tyforge <command> [flags]

student commands:
  login | signup | logout [-admin] | me [-admin] | profile
  dashboard
  projects [list|download|blackbook]
  meet [list|slots|book|delete]
  synopsis [list|upload]
  payment [list|plans|select|proof]
  help [list|request]
  ideas

admin commands:
  admin login
  admin users [delete]
  admin students [-user ID]
  admin ideas [-q QUERY]
  admin requests | admin respond
  admin approve-payment | admin proof
  admin update-project | admin share | admin upload-project
  admin update-synopsis | admin synopsis
  admin meeting

operations:
  export projects
  stub serve
  migrate [up|status]
  credentials purge`

// Run bootstraps the TYforge command line client.
func Run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, in: os.Stdin, out: os.Stdout, errOut: os.Stderr, logger: logger}
	return c.run(ctx, args)
}

// cli carries what every command needs. Tests build one directly with their
// own writers and HTTP client.
type cli struct {
	cfg    config.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	httpClient *http.Client
	location   *time.Location
	now        func() time.Time
}

type command func(ctx context.Context, args []string) error

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.errOut, usage)
		return errors.New("expected a command")
	}

	commands := map[string]command{
		"login":       c.login,
		"signup":      c.signup,
		"logout":      c.logout,
		"me":          c.me,
		"profile":     c.profile,
		"dashboard":   c.dashboard,
		"projects":    c.projects,
		"meet":        c.meet,
		"synopsis":    c.synopsis,
		"payment":     c.payment,
		"help":        c.help,
		"ideas":       c.ideaQuota,
		"admin":       c.admin,
		"export":      c.export,
		"stub":        c.stub,
		"migrate":     c.migrate,
		"credentials": c.credentials,
	}

	name := args[0]
	if name == "-h" || name == "--help" || name == "usage" {
		fmt.Fprintln(c.out, usage)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(logging.WithLogger(ctx, c.logger.With("command", name)), args[1:])
}

// sub splits "<verb> [flags]" and falls back to def when no verb is given.
func sub(args []string, def string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return def, args
	}
	return args[0], args[1:]
}

// flags returns a flag set that reports errors instead of exiting.
func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

// arg returns the i-th positional argument or an error naming it.
func arg(fs *flag.FlagSet, i int, what string) (string, error) {
	if fs.NArg() <= i || strings.TrimSpace(fs.Arg(i)) == "" {
		return "", fmt.Errorf("%s: missing %s", fs.Name(), what)
	}
	return fs.Arg(i), nil
}

// viewState is implemented by every page of the views package.
type viewState interface {
	State() session.State
}

// check turns a page that did not reach Ready into an error. Failures have
// already been shown and redirects have printed the login hint.
func check(p viewState) error {
	switch s := p.State().(type) {
	case session.Ready:
		return nil
	case session.Redirecting:
		return ErrLoginRequired
	case session.Failed:
		return fmt.Errorf("%w: %w", ErrReported, s.Err)
	default:
		return fmt.Errorf("view ended in state %s", s.Name())
	}
}

// result maps the error of a page action. An auth failure has moved the page
// to Redirecting; anything else was reported.
func result(p viewState, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := p.State().(session.Redirecting); ok {
		return ErrLoginRequired
	}
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// mutated maps a mutation outcome. A refresh rejected with 401/403 leaves the
// page Redirecting even though the mutation itself succeeded.
func mutated(p viewState, o refresh.Outcome) error {
	if _, ok := p.State().(session.Redirecting); ok {
		return ErrLoginRequired
	}
	return result(p, o.Err)
}
