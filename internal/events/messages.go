package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// LedgerEvent announces a committed balance mutation. It carries enough to
// build a notification line; consumers needing full history re-query the
// store.
type LedgerEvent struct {
	UserID        string    `json:"user_id"`
	Kind          string    `json:"kind"` // income, expense or transfer
	Account       string    `json:"account"`
	TargetAccount string    `json:"target_account,omitempty"`
	Amount        float64   `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewLedgerEvent(userID, kind, account, targetAccount string, amount float64) *LedgerEvent {
	return &LedgerEvent{
		UserID:        userID,
		Kind:          kind,
		Account:       account,
		TargetAccount: targetAccount,
		Amount:        amount,
		OccurredAt:    time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Describe renders the event as a user-facing notification line.
func (e *LedgerEvent) Describe() string {
	switch e.Kind {
	case "income":
		return fmt.Sprintf("Received %.2f on %s", e.Amount, e.Account)
	case "expense":
		return fmt.Sprintf("Spent %.2f from %s", e.Amount, e.Account)
	case "transfer":
		return fmt.Sprintf("Moved %.2f from %s to %s", e.Amount, e.Account, e.TargetAccount)
	default:
		return fmt.Sprintf("Ledger activity on %s", e.Account)
	}
}
