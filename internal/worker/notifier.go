// Package worker turns ledger events into user-facing notifications.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashflow/internal/events"
)

// Notification is one rendered line of ledger activity.
type Notification struct {
	UserID  string
	Message string
	At      time.Time
}

// Notifier consumes ledger events and keeps a bounded in-memory feed of
// recent notifications per run. Delivery channels (push, mail) would hang
// off HandleLedgerEvent; for now the feed and the log are the output.
type Notifier struct {
	mu     sync.Mutex
	recent []Notification
	limit  int
}

func NewNotifier(limit int) *Notifier {
	if limit <= 0 {
		limit = 100
	}
	return &Notifier{limit: limit}
}

// HandleLedgerEvent processes a single event from the queue.
func (n *Notifier) HandleLedgerEvent(ctx context.Context, event *events.LedgerEvent) error {
	note := Notification{
		UserID:  event.UserID,
		Message: event.Describe(),
		At:      event.OccurredAt,
	}

	n.mu.Lock()
	n.recent = append(n.recent, note)
	if len(n.recent) > n.limit {
		n.recent = n.recent[len(n.recent)-n.limit:]
	}
	n.mu.Unlock()

	slog.InfoContext(ctx, "Notification",
		"user_id", note.UserID,
		"message", note.Message,
		"occurred_at", note.At)

	return nil
}

// Recent returns the retained notifications, oldest first.
func (n *Notifier) Recent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.recent...)
}
