package refresh

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/logging"
)

// Reporter shows mutation outcomes to the user.
type Reporter interface {
	Error(err error, fallback string) error
	Success(message string)
}

// Refresher re-fetches one collection a mutation may have changed.
type Refresher struct {
	Name  string
	Fetch func(ctx context.Context) error
}

// Mutation is a write followed by a full reload of every affected collection.
type Mutation struct {
	Name    string
	Do      func(ctx context.Context) error
	Success string
	Failure string
	Refresh []Refresher
}

// Outcome summarises a mutation run.
type Outcome struct {
	// Err is the mutation error, already reported. Nil on success.
	Err error
	// Stale is set when the mutation succeeded but at least one refresher
	// failed; the view keeps its previous data until the next reload.
	Stale     bool
	Refreshed []string
	Failed    []string
}

// Coordinator runs mutations. After a failed write nothing is refreshed; after a
// successful one every refresher runs exactly once.
type Coordinator struct {
	reporter Reporter
}

// NewCoordinator returns a Coordinator reporting through reporter.
func NewCoordinator(reporter Reporter) *Coordinator {
	if reporter == nil {
		panic("refresh: reporter must not be nil")
	}
	return &Coordinator{reporter: reporter}
}

// Run performs m.
func (c *Coordinator) Run(ctx context.Context, m Mutation) Outcome {
	logger := logging.FromContext(ctx).With("mutation", m.Name)

	if err := m.Do(ctx); err != nil {
		logger.Info("mutation failed, skipping refresh", "error", err)
		return Outcome{Err: c.reporter.Error(err, m.Failure)}
	}

	if m.Success != "" {
		c.reporter.Success(m.Success)
	}

	var (
		mu      sync.Mutex
		outcome Outcome
		authErr error
	)
	var group errgroup.Group
	for _, r := range m.Refresh {
		group.Go(func() error {
			err := r.Fetch(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				outcome.Refreshed = append(outcome.Refreshed, r.Name)
				return nil
			}
			outcome.Failed = append(outcome.Failed, r.Name)
			if api.IsAuthFailure(err) && authErr == nil {
				authErr = err
			}
			if !errors.Is(err, context.Canceled) {
				logger.Warn("refresh failed after mutation, view may be stale", "collection", r.Name, "error", err)
			}
			return nil
		})
	}
	_ = group.Wait()

	outcome.Stale = len(outcome.Failed) > 0
	if authErr != nil {
		c.reporter.Error(authErr, m.Failure)
	}
	return outcome
}
