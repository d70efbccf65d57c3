package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tyforge/client/internal/db"
	"github.com/tyforge/client/internal/repositories"
)

const defaultCredentialMaxAge = 30 * 24 * time.Hour

// credentials maintains the shared PostgreSQL credential store.
func (c *cli) credentials(ctx context.Context, args []string) error {
	verb, rest := sub(args, "")
	if verb != "purge" {
		return fmt.Errorf("credentials: expected \"purge\", got %q", verb)
	}

	fs := c.flags("credentials purge")
	olderThan := fs.Duration("older-than", defaultCredentialMaxAge, "remove credentials not written for this long")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if c.cfg.CredentialsDSN == "" {
		return errNoDSN
	}

	pool, err := db.Connect(ctx, c.cfg.CredentialsDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := repositories.NewPostgresCredentialStore(pool, c.cfg.CredentialsNamespace)
	removed, err := store.Purge(ctx, c.clock().Add(-*olderThan))
	if errors.Is(err, repositories.ErrNotFound) {
		fmt.Fprintln(c.out, "no stale credentials")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "removed %d stale credentials\n", removed)
	return nil
}
