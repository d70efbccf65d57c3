package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/config"
	"github.com/tyforge/client/internal/db"
	"github.com/tyforge/client/internal/notify"
	"github.com/tyforge/client/internal/repositories"
	"github.com/tyforge/client/internal/session"
	"github.com/tyforge/client/internal/storage"
	"github.com/tyforge/client/internal/views"
)

// dependencies are the collaborators of the client commands.
type dependencies struct {
	API      *api.Client
	Tokens   *auth.Provider
	Reporter *notify.Reporter
	Env      *views.Env
}

// buildDependencies wires the token store, the API client and the page
// environment. The returned cleanup closes the database pool when one was
// opened.
func (c *cli) buildDependencies(ctx context.Context) (dependencies, func(), error) {
	store, cleanup, err := credentialStore(ctx, c.cfg)
	if err != nil {
		return dependencies{}, nil, err
	}

	tokens := auth.NewProvider(store)
	client := api.NewClient(c.cfg.APIBaseURL, tokens, c.httpClient)

	var sink notify.Sink = notify.NewWriterSink(c.errOut)
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		sink = notify.Tee{sink, notify.LogSink{Logger: c.logger}}
	}
	reporter := notify.NewReporter(sink)

	env := &views.Env{
		API:      client,
		Tokens:   tokens,
		Reporter: reporter,
		Redirect: session.RedirectFunc(c.redirect),
		Location: c.location,
		Now:      c.now,
	}

	return dependencies{API: client, Tokens: tokens, Reporter: reporter, Env: env}, cleanup, nil
}

// credentialStore picks the PostgreSQL store when a DSN is configured and the
// credentials file otherwise.
func credentialStore(ctx context.Context, cfg config.Config) (auth.Store, func(), error) {
	if cfg.CredentialsDSN == "" {
		return auth.NewFileStore(cfg.CredentialsPath), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.CredentialsDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	return repositories.NewPostgresCredentialStore(pool, cfg.CredentialsNamespace), pool.Close, nil
}

// archiveStorage is the export target: the configured bucket, or a local
// directory when no bucket is set.
func archiveStorage(ctx context.Context, cfg config.ExportConfig) (storage.ArchiveStorage, error) {
	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	dir, err := storage.NewDirStorage(cfg.Dir)
	if err != nil {
		return nil, err
	}
	return dir, nil
}

// redirect prints how to get back to the login view.
func (c *cli) redirect(_ context.Context, target string) {
	command := "tyforge login"
	if target == session.AdminLoginPath {
		command = "tyforge admin login"
	}
	fmt.Fprintf(c.errOut, "%s: run %q\n", ErrLoginRequired, command)
}
