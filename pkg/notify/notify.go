package notify

import (
	"context"
	"errors"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
)

// Kind names an assignment workflow event.
type Kind string

const (
	KindProposed  Kind = "assignment.proposed"
	KindAccepted  Kind = "assignment.accepted"
	KindRejected  Kind = "assignment.rejected"
	KindCancelled Kind = "assignment.cancelled"
)

// Recipient selects who an event is addressed to.
type Recipient string

const (
	ToTechnician Recipient = "technician"
	ToAdmin      Recipient = "admin"
)

// ErrNoRecipient is returned when an event has no deliverable address.
var ErrNoRecipient = errors.New("notify: no recipient")

// Event describes one assignment change to deliver.
type Event struct {
	Kind            Kind      `json:"kind"`
	Recipient       Recipient `json:"recipient"`
	MissionID       string    `json:"mission_id"`
	MissionTitle    string    `json:"mission_title"`
	MissionStart    time.Time `json:"mission_start"`
	MissionEnd      time.Time `json:"mission_end"`
	TechnicianID    string    `json:"technician_id"`
	TechnicianName  string    `json:"technician_name,omitempty"`
	TechnicianEmail string    `json:"-"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to the log. It is used when no channel is configured.
type LogNotifier struct {
	Log logger.Logger
}

func (l LogNotifier) Notify(_ context.Context, ev Event) error {
	l.Log.With(map[string]any{
		"mission_id":    ev.MissionID,
		"technician_id": ev.TechnicianID,
		"recipient":     string(ev.Recipient),
	}).Infof("notification %s", ev.Kind)
	return nil
}
