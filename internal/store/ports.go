// Package store defines the persistence contract the ledger service runs
// against. Backends provide per-user account and transaction collections,
// point reads and writes, and an atomic read-modify-write primitive with
// all-or-nothing commit semantics.
package store

import (
	"context"

	"cashflow/internal/core"
)

// Ports for persistence backends.
type (
	AccountStore interface {
		// GetAccount returns core.ErrAccountNotFound when the id is absent.
		GetAccount(ctx context.Context, userID, accountID string) (core.Account, error)
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		// PutAccount creates or replaces an account document. A missing ID is
		// assigned by the backend and returned.
		PutAccount(ctx context.Context, userID string, a core.Account) (string, error)
		DeleteAccount(ctx context.Context, userID, accountID string) error
	}

	TransactionStore interface {
		// AppendTransaction adds one immutable ledger record. Records are
		// never updated or deleted; history is append-only.
		AppendTransaction(ctx context.Context, userID string, rec core.Transaction) (string, error)
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		PutProfile(ctx context.Context, userID string, p core.Profile) error
	}

	// BalanceTx is the view inside an atomic block. Reads must precede
	// writes; backends built on optimistic transactions reject interleaving.
	BalanceTx interface {
		Account(accountID string) (core.Account, error)
		SetBalance(accountID string, balance float64) error
		Append(rec core.Transaction) error
	}

	// Transactor runs fn as one atomic unit: every read sees a consistent
	// snapshot, and either all issued writes commit or none do. Backends
	// retry fn on write conflict, so fn must be safe to re-run.
	Transactor interface {
		RunBalanceTx(ctx context.Context, userID string, fn func(tx BalanceTx) error) error
	}

	// Store is the full backend surface consumed by the ledger service.
	Store interface {
		AccountStore
		TransactionStore
		ProfileStore
		Transactor
	}
)
