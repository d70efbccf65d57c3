package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyforge/client/internal/api"
)

func TestMessagePriority(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "detail", err: &api.Error{Status: 400, Message: "X", Detail: "X", ServerMessage: "Y"}, want: "X"},
		{name: "server message", err: &api.Error{Status: 400, Message: "Y", ServerMessage: "Y"}, want: "Y"},
		{name: "status line", err: &api.Error{Status: 500, Message: "HTTP 500: Internal Server Error"}, want: "HTTP 500: Internal Server Error"},
		{name: "plain error", err: errors.New("disk full"), want: "disk full"},
		{name: "empty error", err: errors.New(""), want: "Failed to load"},
		{name: "transport", err: &api.Error{Kind: api.KindTransport, Message: "unable to reach the server"}, want: "Failed to load"},
		{name: "wrapped detail", err: fmt.Errorf("load dashboard: %w", &api.Error{Status: 409, Message: "dup", Detail: "dup"}), want: "dup"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Message(tc.err, "Failed to load"))
		})
	}
	assert.Equal(t, DefaultMessage, Message(errors.New(" "), ""))
}

func TestReporterEmitsOncePerError(t *testing.T) {
	rec := &Recorder{}
	reporter := NewReporter(rec)

	failure := &api.Error{Status: 400, Message: "bad", Detail: "bad"}
	marked := reporter.Error(failure, "fallback")
	require.Error(t, marked)
	assert.True(t, IsReported(marked))
	assert.ErrorIs(t, marked, failure)

	reporter.Error(failure, "fallback")
	reporter.Error(marked, "fallback")
	reporter.Error(fmt.Errorf("wrapped: %w", marked), "fallback")

	assert.Equal(t, []string{"bad"}, rec.Messages(LevelError))
}

func TestReporterEmitsOncePerPlainError(t *testing.T) {
	rec := &Recorder{}
	reporter := NewReporter(rec)

	same := errors.New("same")
	reporter.Error(same, "x")
	reporter.Error(same, "x")
	reporter.Error(fmt.Errorf("book meeting: %w", same), "x")
	reporter.Error(errors.New("other"), "x")

	assert.Equal(t, []string{"same", "other"}, rec.Messages(LevelError))
}

func TestReporterForgetsOldestErrors(t *testing.T) {
	rec := &Recorder{}
	reporter := NewReporter(rec)

	first := errors.New("first")
	reporter.Error(first, "x")
	for i := 0; i < seenLimit; i++ {
		reporter.Error(fmt.Errorf("failure %d", i), "x")
	}
	assert.Len(t, reporter.seen, seenLimit)
	assert.Len(t, reporter.order, seenLimit)

	reporter.Error(first, "x")
	assert.Len(t, rec.Messages(LevelError), seenLimit+2)
}

func TestReporterSkipsNilAndCanceled(t *testing.T) {
	rec := &Recorder{}
	reporter := NewReporter(rec)

	assert.NoError(t, reporter.Error(nil, "x"))
	reporter.Error(fmt.Errorf("fetch: %w", context.Canceled), "x")
	assert.Empty(t, rec.Notifications())
}

type panicSink struct{}

func (panicSink) Notify(Notification) { panic("boom") }

func TestReporterNeverPanics(t *testing.T) {
	reporter := NewReporter(panicSink{})
	assert.NotPanics(t, func() {
		reporter.Error(errors.New("x"), "y")
		reporter.Success("ok")
	})
}

func TestWriterSinkAndTee(t *testing.T) {
	var buf bytes.Buffer
	rec := &Recorder{}
	reporter := NewReporter(Tee{NewWriterSink(&buf), rec})

	reporter.Success("Meeting booked")
	reporter.Error(errors.New("Upload failed"), "")

	assert.Equal(t, "success: Meeting booked\nerror: Upload failed\n", buf.String())
	notes := rec.Notifications()
	require.Len(t, notes, 2)
	assert.NotEqual(t, notes[0].ID, notes[1].ID)
	assert.False(t, notes[0].At.IsZero())
}
