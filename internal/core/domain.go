package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryCash  CardCategory = "Cash"
	CategoryBank  CardCategory = "Bank"
	CategoryOther CardCategory = "Other"
)

const (
	TypeIncome           TransactionType = "income"
	TypeExpense          TransactionType = "expense"
	TypeTransfer         TransactionType = "transfer"
	TypeTransferIncoming TransactionType = "transfer_incoming"
	TypeTransferOutgoing TransactionType = "transfer_outgoing"
)

// DateLayout is the application-level timestamp format carried on
// transaction records.
const DateLayout = "2006-01-02 15:04:05"

type (
	CardCategory    string
	TransactionType string

	// Account is a named balance-holding entity owned by a user. Balance is
	// mutated only through the ledger service; every other field is free to
	// change via account edits.
	Account struct {
		ID           string       `json:"id"`
		CardCategory CardCategory `json:"cardCategory"`
		CardNumber   string       `json:"cardNumber"`
		CardName     string       `json:"cardName"`
		Balance      float64      `json:"balance"`
		CardColor    string       `json:"cardColor"`
		DateCreated  int64        `json:"dateCreated"` // unix millis
	}

	// Transaction is one immutable ledger record. Amount is always a positive
	// magnitude; the sign is carried by Type. Account and TargetAccount hold
	// display names, not ids.
	Transaction struct {
		Type          TransactionType `json:"type"`
		Account       string          `json:"account"`
		Amount        float64         `json:"amount"`
		Category      string          `json:"category"`
		Date          string          `json:"date"`
		Notes         string          `json:"notes"`
		TargetAccount string          `json:"targetAccount,omitempty"`
	}

	// Profile is the per-user document created at registration.
	Profile struct {
		Username  string  `json:"username"`
		Email     string  `json:"email"`
		Balance   float64 `json:"balance"`
		CreatedAt int64   `json:"createdAt"` // unix millis
	}
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("source and target accounts must differ")
)

// DecodeError reports a stored document missing a required field. Backends
// return it instead of silently defaulting.
type DecodeError struct {
	Doc   string
	Field string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: missing required field %q", e.Doc, e.Field)
}

func (cc CardCategory) IsValid() bool {
	switch cc {
	case CategoryCash, CategoryBank, CategoryOther:
		return true
	default:
		return false
	}
}

func (tt TransactionType) IsValid() bool {
	switch tt {
	case TypeIncome, TypeExpense, TypeTransfer, TypeTransferIncoming, TypeTransferOutgoing:
		return true
	default:
		return false
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.CardName) == "" {
		return errors.New("empty account name")
	}
	if !a.CardCategory.IsValid() {
		return fmt.Errorf("invalid card category %q", a.CardCategory)
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if strings.TrimSpace(t.Account) == "" {
		return errors.New("empty account name")
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Date) == "" {
		return errors.New("empty date")
	}
	return nil
}

// NewTransferLegs builds the paired outgoing/incoming records for a transfer.
// Both legs carry the same amount and timestamp; account and targetAccount
// are mirrored so either side of the history names the other.
func NewTransferLegs(source, target Account, amount float64, at time.Time) (outgoing, incoming Transaction) {
	date := at.Format(DateLayout)
	outgoing = Transaction{
		Type:          TypeTransferOutgoing,
		Account:       source.CardName,
		Amount:        amount,
		Category:      "Transfer",
		Date:          date,
		Notes:         "Transfer to " + target.CardName,
		TargetAccount: target.CardName,
	}
	incoming = Transaction{
		Type:          TypeTransferIncoming,
		Account:       target.CardName,
		Amount:        amount,
		Category:      "Transfer",
		Date:          date,
		Notes:         "Transfer from " + source.CardName,
		TargetAccount: source.CardName,
	}
	return outgoing, incoming
}

// Signed returns the amount with the sign the record applies to its account:
// positive for income and incoming transfers, negative otherwise.
func (t Transaction) Signed() float64 {
	switch t.Type {
	case TypeIncome, TypeTransferIncoming:
		return t.Amount
	default:
		return -t.Amount
	}
}
