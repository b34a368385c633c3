package worker

import (
	"context"
	"fmt"
	"testing"

	"cashflow/internal/events"
)

func TestHandleLedgerEvent(t *testing.T) {
	n := NewNotifier(10)
	ctx := context.Background()

	event := events.NewLedgerEvent("u1", "income", "Wallet", "", 250.50)
	if err := n.HandleLedgerEvent(ctx, event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	recent := n.Recent()
	if len(recent) != 1 {
		t.Fatalf("expected one notification, got %d", len(recent))
	}
	if recent[0].UserID != "u1" || recent[0].Message != "Received 250.50 on Wallet" {
		t.Fatalf("unexpected notification: %+v", recent[0])
	}
}

func TestRecentIsBounded(t *testing.T) {
	n := NewNotifier(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		event := events.NewLedgerEvent("u1", "expense", fmt.Sprintf("Account %d", i), "", 1)
		if err := n.HandleLedgerEvent(ctx, event); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}

	recent := n.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected feed capped at 3, got %d", len(recent))
	}
	if recent[0].Message != "Spent 1.00 from Account 2" {
		t.Fatalf("expected oldest retained entry from event 2, got %q", recent[0].Message)
	}
	if recent[2].Message != "Spent 1.00 from Account 4" {
		t.Fatalf("expected newest entry last, got %q", recent[2].Message)
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	n := NewNotifier(10)
	_ = n.HandleLedgerEvent(context.Background(), events.NewLedgerEvent("u1", "income", "Wallet", "", 5))

	first := n.Recent()
	first[0].Message = "mutated"
	if n.Recent()[0].Message == "mutated" {
		t.Fatal("Recent must return a copy of the feed")
	}
}

func TestDescribeTransfer(t *testing.T) {
	event := events.NewLedgerEvent("u1", "transfer", "Checking", "Savings", 40)
	want := "Moved 40.00 from Checking to Savings"
	if got := event.Describe(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
