package archive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/storage"
)

// ErrExporterClosed is returned when jobs are enqueued after Shutdown.
var ErrExporterClosed = errors.New("archive exporter closed")

// Source downloads the project archive of a student.
type Source interface {
	DownloadProjectArchive(ctx context.Context, scope auth.Scope, userID string) (api.Blob, error)
}

// Config controls the concurrency of the exporter.
type Config struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single download plus upload.
	Timeout time.Duration
}

// Result is the outcome of exporting one student's archive.
type Result struct {
	UserID   string
	Filename string
	Location string
	Size     int
	Err      error
}

// Exporter copies project archives from the backend into an ArchiveStorage with
// a fixed pool of workers.
type Exporter struct {
	source  Source
	sink    storage.ArchiveStorage
	logger  *slog.Logger
	timeout time.Duration

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// closeMu keeps Enqueue from sending on a closed queue.
	closeMu sync.RWMutex
	closed  bool

	mu      sync.Mutex
	results []Result
}

// NewExporter starts the worker pool.
func NewExporter(source Source, sink storage.ArchiveStorage, cfg Config, logger *slog.Logger) *Exporter {
	if source == nil || sink == nil {
		panic("archive: source and sink are required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Exporter{
		source:  source,
		sink:    sink,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	e.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go e.worker()
	}
	return e
}

// Enqueue schedules the export of userID's archive. It blocks while the queue is
// full.
func (e *Exporter) Enqueue(ctx context.Context, userID string) error {
	e.closeMu.RLock()
	defer e.closeMu.RUnlock()
	if e.closed {
		return ErrExporterClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrExporterClosed
	case e.jobs <- userID:
		return nil
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, in-flight exports are cancelled.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.closeMu.Lock()
	if !e.closed {
		e.closed = true
		close(e.jobs)
	}
	e.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		e.cancel()
		<-done
		return ctx.Err()
	case <-done:
		e.cancel()
		return nil
	}
}

// Results returns the finished exports ordered by user id.
func (e *Exporter) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]Result(nil), e.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (e *Exporter) worker() {
	defer e.wg.Done()
	for userID := range e.jobs {
		res := e.export(userID)
		e.mu.Lock()
		e.results = append(e.results, res)
		e.mu.Unlock()
	}
}

func (e *Exporter) export(userID string) Result {
	res := Result{UserID: userID}
	if err := e.ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
	defer cancel()

	archive, err := e.source.DownloadProjectArchive(ctx, auth.ScopeAdmin, userID)
	if err != nil {
		e.logger.Warn("project archive download failed", "userId", userID, "status", api.StatusCode(err), "error", err)
		res.Err = err
		return res
	}

	res.Filename = archive.Filename
	res.Size = len(archive.Data)
	prefixed := storage.Prefixed{Prefix: userID, Base: e.sink}
	location, err := prefixed.Save(ctx, archive.Filename, archive.ContentType, bytes.NewReader(archive.Data))
	if err != nil {
		e.logger.Error("project archive export failed", "userId", userID, "error", err)
		res.Err = err
		return res
	}

	e.logger.Info("project archive exported", "userId", userID, "location", location, "size", res.Size)
	res.Location = location
	return res
}

// ExportAll exports every user id and returns the per-user results.
func ExportAll(ctx context.Context, e *Exporter, userIDs []string) ([]Result, error) {
	for _, id := range userIDs {
		if err := e.Enqueue(ctx, id); err != nil {
			_ = e.Shutdown(context.Background())
			return e.Results(), err
		}
	}
	if err := e.Shutdown(ctx); err != nil {
		return e.Results(), err
	}
	return e.Results(), nil
}
