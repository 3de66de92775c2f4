// Package notify carries toast-style user notifications from the form
// pipeline to whichever front end displays them.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/authportal/authportal-go/internal/cache"
)

// Level tells a front end how to style a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one message shown to the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Success builds a success notification stamped now.
func Success(msg string) Notification {
	return Notification{Level: LevelSuccess, Message: msg, At: time.Now()}
}

// Failure builds an error notification stamped now.
func Failure(msg string) Notification {
	return Notification{Level: LevelError, Message: msg, At: time.Now()}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// Sink routes notifications to the client that caused them.
type Sink interface {
	For(clientID string) Notifier
	Drain(clientID string) []Notification
}

// Direct sends every client's notifications to one Notifier and queues
// nothing, for front ends that display them immediately.
type Direct struct {
	Notifier
}

func (d Direct) For(string) Notifier {
	return d.Notifier
}

func (Direct) Drain(string) []Notification {
	return nil
}

// FlashStore queues notifications per client until the next page render.
type FlashStore struct {
	queues *cache.Memory[string, []Notification]
	ttl    time.Duration
}

// NewFlashStore creates a store whose idle queues expire after ttl.
func NewFlashStore(ttl time.Duration) *FlashStore {
	return &FlashStore{queues: cache.NewMemory[string, []Notification](), ttl: ttl}
}

// Push appends n to the client's queue.
func (s *FlashStore) Push(clientID string, n Notification) {
	s.queues.Update(clientID, func(cur []Notification, _ bool) []Notification {
		return append(cur, n)
	}, s.ttl)
}

// Drain returns and clears the client's queue.
func (s *FlashStore) Drain(clientID string) []Notification {
	ns, _ := s.queues.Take(clientID)
	return ns
}

// For returns a Notifier that queues into clientID's flash queue.
func (s *FlashStore) For(clientID string) Notifier {
	return NotifierFunc(func(_ context.Context, n Notification) {
		s.Push(clientID, n)
	})
}

// StartJanitor drops abandoned queues until ctx is done.
func (s *FlashStore) StartJanitor(ctx context.Context, interval time.Duration) {
	s.queues.StartJanitor(ctx, interval)
}

// Writer prints notifications as lines, for terminal front ends.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Notify(_ context.Context, n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	mark := "✓"
	if n.Level == LevelError {
		mark = "✗"
	}
	fmt.Fprintf(w.w, "%s %s\n", mark, n.Message)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of the received notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}
