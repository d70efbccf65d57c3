package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// WriterSink prints notifications as single lines, e.g. to stderr.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s: %s\n", n.Level, n.Message)
}

// LogSink records notifications through slog.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Notify(n Notification) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Level == LevelError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "notification", "notificationId", n.ID, "level", string(n.Level), "message", n.Message)
}

// Tee fans a notification out to several sinks.
type Tee []Sink

func (t Tee) Notify(n Notification) {
	for _, sink := range t {
		sink.Notify(n)
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Messages returns the recorded texts of the given level.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, n := range r.Notifications() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}
