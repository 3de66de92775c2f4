package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashStore(t *testing.T) {
	s := NewFlashStore(time.Minute)
	ctx := context.Background()

	s.For("client-a").Notify(ctx, Success("Login successful."))
	s.For("client-a").Notify(ctx, Failure("Login failed. Please try again."))
	s.For("client-b").Notify(ctx, Success("User registration successful."))

	a := s.Drain("client-a")
	require.Len(t, a, 2)
	assert.Equal(t, LevelSuccess, a[0].Level)
	assert.Equal(t, LevelError, a[1].Level)
	assert.Empty(t, s.Drain("client-a"), "drain must clear the queue")

	b := s.Drain("client-b")
	require.Len(t, b, 1)
	assert.Equal(t, "User registration successful.", b[0].Message)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Notify(context.Background(), Success("Login successful."))
	w.Notify(context.Background(), Failure("Invalid credentials"))

	assert.Equal(t, "✓ Login successful.\n✗ Invalid credentials\n", buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(context.Background(), Success("one"))
	Discard.Notify(context.Background(), Success("dropped"))

	all := r.All()
	require.Len(t, all, 1)
	assert.Equal(t, "one", all[0].Message)
	assert.False(t, all[0].At.IsZero())
}

func TestDirectSink(t *testing.T) {
	rec := &Recorder{}
	var sink Sink = Direct{rec}

	sink.For("a").Notify(context.Background(), Success("to a"))
	sink.For("b").Notify(context.Background(), Failure("to b"))

	assert.Len(t, rec.All(), 2)
	assert.Nil(t, sink.Drain("a"))
}

func TestFlashStoreIsSink(t *testing.T) {
	var sink Sink = NewFlashStore(time.Minute)
	sink.For("a").Notify(context.Background(), Success("queued"))

	got := sink.Drain("a")
	require.Len(t, got, 1)
	assert.Equal(t, "queued", got[0].Message)
}
