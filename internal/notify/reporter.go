package notify

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/api"
)

// Level is the severity of a notification.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// seenLimit bounds how many reported errors are remembered for deduplication.
const seenLimit = 64

// DefaultMessage is used when neither the error nor the caller supplies any text.
const DefaultMessage = "Something went wrong"

// Notification is one transient, non-blocking message for the user.
type Notification struct {
	ID      string
	Level   Level
	Message string
	At      time.Time
}

// Sink displays notifications.
type Sink interface {
	Notify(n Notification)
}

// reportedError marks an error that already produced a notification.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err (or an error it wraps) was already shown.
func IsReported(err error) bool {
	var marked *reportedError
	return errors.As(err, &marked)
}

// Reporter turns errors into exactly one notification each.
type Reporter struct {
	sink Sink
	now  func() time.Time

	mu    sync.Mutex
	seen  map[error]struct{}
	order []error
}

// NewReporter wraps sink.
func NewReporter(sink Sink) *Reporter {
	if sink == nil {
		panic("notify: sink must not be nil")
	}
	return &Reporter{sink: sink, now: time.Now, seen: make(map[error]struct{})}
}

// Error shows the most specific text available for err and returns err marked as
// reported. Reporting the same failure again is a no-op, as is a canceled context
// (the view that asked is gone). Error never panics.
func (r *Reporter) Error(err error, fallback string) (marked error) {
	if err == nil {
		return nil
	}
	marked = err
	defer func() {
		if recovered := recover(); recovered != nil {
			marked = err
		}
	}()

	if IsReported(err) || errors.Is(err, context.Canceled) {
		return err
	}

	if !r.firstReport(err) {
		return &reportedError{err: err}
	}

	r.emit(LevelError, Message(err, fallback))
	return &reportedError{err: err}
}

// firstReport records every comparable error in err's chain and reports whether
// none of them was seen before. Only the most recent seenLimit errors are kept.
func (r *Reporter) firstReport(err error) bool {
	var chain []error
	for e := err; e != nil; e = errors.Unwrap(e) {
		if reflect.TypeOf(e).Comparable() {
			chain = append(chain, e)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range chain {
		if _, ok := r.seen[e]; ok {
			return false
		}
	}
	for _, e := range chain {
		if _, ok := r.seen[e]; ok {
			continue
		}
		r.seen[e] = struct{}{}
		r.order = append(r.order, e)
	}
	for len(r.order) > seenLimit {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	return true
}

// Success shows a confirmation.
func (r *Reporter) Success(message string) {
	r.emit(LevelSuccess, message)
}

// Info shows a neutral message.
func (r *Reporter) Info(message string) {
	r.emit(LevelInfo, message)
}

func (r *Reporter) emit(level Level, message string) {
	defer func() {
		_ = recover()
	}()
	r.sink.Notify(Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      r.now(),
	})
}

// Message picks the user-facing text for err: server detail, then server message,
// then the error's own text, then fallback. Transport and malformed-response
// failures prefer fallback because their own text is generic.
func Message(err error, fallback string) string {
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = DefaultMessage
	}
	if err == nil {
		return fallback
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.ServerMessage != "" {
			return apiErr.ServerMessage
		}
		if apiErr.Kind == api.KindTransport || apiErr.Kind == api.KindMalformed {
			return fallback
		}
	}

	if text := strings.TrimSpace(err.Error()); text != "" {
		return text
	}
	return fallback
}
