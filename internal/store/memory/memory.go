// Package memory is the in-memory store backend used for development and
// tests. A single mutex serializes atomic blocks, which trivially satisfies
// the all-or-nothing contract: writes are staged and applied only when the
// closure returns nil.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

type Store struct {
	mu       sync.Mutex
	accounts map[string]map[string]core.Account // userID -> accountID -> account
	records  map[string][]core.Transaction      // userID -> append-only ledger
	profiles map[string]core.Profile
}

func New() *Store {
	return &Store{
		accounts: make(map[string]map[string]core.Account),
		records:  make(map[string][]core.Transaction),
		profiles: make(map[string]core.Profile),
	}
}

func (s *Store) GetAccount(_ context.Context, userID, accountID string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID][accountID]
	if !ok {
		return core.Account{}, core.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0, len(s.accounts[userID]))
	for _, a := range s.accounts[userID] {
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) PutAccount(_ context.Context, userID string, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if s.accounts[userID] == nil {
		s.accounts[userID] = make(map[string]core.Account)
	}
	s.accounts[userID][a.ID] = a
	return a.ID, nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[userID][accountID]; !ok {
		return core.ErrAccountNotFound
	}
	delete(s.accounts[userID], accountID)
	return nil
}

func (s *Store) AppendTransaction(_ context.Context, userID string, rec core.Transaction) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = append(s.records[userID], rec)
	return uuid.New().String(), nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.records[userID]...), nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, core.ErrAccountNotFound
	}
	return p, nil
}

func (s *Store) PutProfile(_ context.Context, userID string, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}

// RunBalanceTx holds the store lock for the duration of fn. Balance writes
// and record appends are staged in the tx view and applied together only if
// fn succeeds, so a failing closure leaves nothing behind.
func (s *Store) RunBalanceTx(_ context.Context, userID string, fn func(tx store.BalanceTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{st: s, userID: userID, balances: make(map[string]float64)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, bal := range tx.balances {
		a := s.accounts[userID][id]
		a.Balance = bal
		s.accounts[userID][id] = a
	}
	s.records[userID] = append(s.records[userID], tx.appended...)
	return nil
}

type memTx struct {
	st       *Store
	userID   string
	balances map[string]float64
	appended []core.Transaction
}

func (t *memTx) Account(accountID string) (core.Account, error) {
	a, ok := t.st.accounts[t.userID][accountID]
	if !ok {
		return core.Account{}, core.ErrAccountNotFound
	}
	if bal, staged := t.balances[accountID]; staged {
		a.Balance = bal
	}
	return a, nil
}

func (t *memTx) SetBalance(accountID string, balance float64) error {
	if _, ok := t.st.accounts[t.userID][accountID]; !ok {
		return core.ErrAccountNotFound
	}
	t.balances[accountID] = balance
	return nil
}

func (t *memTx) Append(rec core.Transaction) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	t.appended = append(t.appended, rec)
	return nil
}
