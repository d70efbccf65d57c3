package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tyforge/client/internal/api"
	"github.com/tyforge/client/internal/auth"
)

type sourceStub struct {
	mu     sync.Mutex
	scopes []auth.Scope
	fail   map[string]error
	block  chan struct{}
}

func (s *sourceStub) DownloadProjectArchive(ctx context.Context, scope auth.Scope, userID string) (api.Blob, error) {
	s.mu.Lock()
	s.scopes = append(s.scopes, scope)
	s.mu.Unlock()
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return api.Blob{}, ctx.Err()
		}
	}
	if err := s.fail[userID]; err != nil {
		return api.Blob{}, err
	}
	return api.Blob{Data: []byte("zip-" + userID), Filename: "project.zip", ContentType: "application/zip"}, nil
}

type sinkStub struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func (s *sinkStub) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]string)
	}
	s.saved[name] = string(data)
	return fmt.Sprintf("mem://%s", name), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportAllCollectsResults(t *testing.T) {
	unpaid := &api.Error{Kind: api.KindBusiness, Status: http.StatusPaymentRequired, Message: "Payment required"}
	source := &sourceStub{fail: map[string]error{"u2": unpaid}}
	sink := &sinkStub{}
	exporter := NewExporter(source, sink, Config{Workers: 3, QueueSize: 1}, quietLogger())

	results, err := ExportAll(context.Background(), exporter, []string{"u3", "u1", "u2"})
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].UserID != "u1" || results[0].Location != "mem://u1/project.zip" || results[0].Size != len("zip-u1") {
		t.Fatalf("unexpected result %+v", results[0])
	}
	if !errors.Is(results[1].Err, unpaid) {
		t.Fatalf("expected payment error for u2, got %+v", results[1])
	}
	if sink.saved["u3/project.zip"] != "zip-u3" {
		t.Fatalf("unexpected saved archives %v", sink.saved)
	}
	for _, scope := range source.scopes {
		if scope != auth.ScopeAdmin {
			t.Fatalf("expected admin scope, got %q", scope)
		}
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	exporter := NewExporter(&sourceStub{}, &sinkStub{}, Config{}, quietLogger())
	if err := exporter.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := exporter.Enqueue(context.Background(), "u1"); !errors.Is(err, ErrExporterClosed) {
		t.Fatalf("expected ErrExporterClosed, got %v", err)
	}
	if err := exporter.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestShutdownDeadlineCancelsInFlight(t *testing.T) {
	source := &sourceStub{block: make(chan struct{})}
	exporter := NewExporter(source, &sinkStub{}, Config{Workers: 1}, quietLogger())
	if err := exporter.Enqueue(context.Background(), "u1"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := exporter.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	results := exporter.Results()
	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Fatalf("expected cancelled export, got %+v", results)
	}
}

func TestSinkFailureIsRecorded(t *testing.T) {
	sink := &sinkStub{err: errors.New("disk full")}
	exporter := NewExporter(&sourceStub{}, sink, Config{}, quietLogger())

	results, err := ExportAll(context.Background(), exporter, []string{"u1"})
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if results[0].Err == nil || results[0].Location != "" {
		t.Fatalf("expected sink failure, got %+v", results[0])
	}
}
