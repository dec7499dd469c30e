// Package notify carries diagnostics and user-facing messages out of the core
// and asks the user for confirmation before destructive actions.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reporter receives diagnostics. Reporting never fails from the caller's view.
type Reporter interface {
	Report(event string, err error)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(message string)
}

// Kind distinguishes diagnostics from user notifications in a sink.
type Kind string

const (
	KindDiagnostic   Kind = "diagnostic"
	KindNotification Kind = "notification"
)

// Entry is one diagnostic or notification as written to a Sink.
type Entry struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Event   string    `json:"event,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NewEntry stamps a fresh id and the current time.
func NewEntry(kind Kind, event, message string) Entry {
	return Entry{
		ID:      uuid.NewString(),
		Kind:    kind,
		Event:   event,
		Message: message,
		At:      time.Now().UTC(),
	}
}

// Sink persists or displays entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// Dispatcher adapts a Sink to Reporter and Notifier. Sink failures are logged
// and otherwise dropped.
type Dispatcher struct {
	logger *zap.Logger
	sink   Sink
}

// NewDispatcher returns a Dispatcher writing to sink.
func NewDispatcher(logger *zap.Logger, sink Sink) *Dispatcher {
	return &Dispatcher{logger: logger, sink: sink}
}

func (d *Dispatcher) Report(event string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	d.write(NewEntry(KindDiagnostic, event, msg))
}

func (d *Dispatcher) Notify(message string) {
	d.write(NewEntry(KindNotification, "", message))
}

func (d *Dispatcher) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.sink.Write(ctx, e); err != nil {
		d.logger.Warn("notification sink failed",
			zap.String("kind", string(e.Kind)),
			zap.String("event", e.Event),
			zap.Error(err))
	}
}
