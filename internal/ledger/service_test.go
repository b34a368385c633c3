package ledger

import (
	"context"
	"errors"
	"testing"

	"cashflow/internal/core"
	"cashflow/internal/events"
	"cashflow/internal/store"
	"cashflow/internal/store/memory"
)

const user = "u1"

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewService(st, nil), st
}

func seedAccount(t *testing.T, st *memory.Store, name string, balance float64) string {
	t.Helper()
	id, err := st.PutAccount(context.Background(), user, core.Account{
		CardCategory: core.CategoryCash,
		CardName:     name,
		Balance:      balance,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return id
}

func TestRecordIncome(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 0)

	if err := svc.RecordIncome(ctx, user, "250.50", id, "Salary", "2026-01-02 09:00:00", "payday"); err != nil {
		t.Fatalf("record income: %v", err)
	}

	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != 250.50 {
		t.Fatalf("expected balance 250.50, got %v", a.Balance)
	}

	records, _ := st.ListTransactions(ctx, user)
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	rec := records[0]
	if rec.Type != core.TypeIncome || rec.Account != "Wallet" || rec.Amount != 250.50 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Category != "Salary" || rec.Notes != "payday" {
		t.Fatalf("unexpected record metadata: %+v", rec)
	}
}

func TestRecordExpenseAllowsNegativeBalance(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 20)

	// Overspending is intended behavior: no non-negative check on expenses.
	if err := svc.RecordExpense(ctx, user, "50", id, "Groceries", "", ""); err != nil {
		t.Fatalf("record expense: %v", err)
	}

	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != -30 {
		t.Fatalf("expected balance -30, got %v", a.Balance)
	}
	records, _ := st.ListTransactions(ctx, user)
	if len(records) != 1 || records[0].Type != core.TypeExpense {
		t.Fatalf("expected one expense record, got %+v", records)
	}
}

func TestRecordIncomeInvalidAmount(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 10)

	for _, amount := range []string{"", "abc", "-5"} {
		if err := svc.RecordIncome(ctx, user, amount, id, "", "", ""); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != 10 {
		t.Fatalf("rejected input must not move the balance, got %v", a.Balance)
	}
}

func TestRecordIncomeUnknownAccount(t *testing.T) {
	svc, _ := newService(t)
	err := svc.RecordIncome(context.Background(), user, "10", "missing", "", "", "")
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestNotAuthenticated(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if err := svc.RecordIncome(ctx, "", "10", "x", "", "", ""); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := svc.RecordTransfer(ctx, "", "10", "a", "b"); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	// Reads degrade to empty results rather than failing.
	accounts, err := svc.AccountCards(ctx, "")
	if err != nil || len(accounts) != 0 {
		t.Fatalf("expected empty accounts, got %v err=%v", accounts, err)
	}
	total, err := svc.TotalBalance(ctx, "")
	if err != nil || total != 0 {
		t.Fatalf("expected zero total, got %v err=%v", total, err)
	}
}

func TestRecordTransfer(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	source := seedAccount(t, st, "Checking", 100)
	target := seedAccount(t, st, "Savings", 10)

	if err := svc.RecordTransfer(ctx, user, "40", source, target); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	src, _ := st.GetAccount(ctx, user, source)
	dst, _ := st.GetAccount(ctx, user, target)
	if src.Balance != 60 || dst.Balance != 50 {
		t.Fatalf("expected 60/50, got %v/%v", src.Balance, dst.Balance)
	}

	records, _ := st.ListTransactions(ctx, user)
	if len(records) != 2 {
		t.Fatalf("expected exactly two transfer legs, got %d", len(records))
	}
	var out, in *core.Transaction
	for i := range records {
		switch records[i].Type {
		case core.TypeTransferOutgoing:
			out = &records[i]
		case core.TypeTransferIncoming:
			in = &records[i]
		}
	}
	if out == nil || in == nil {
		t.Fatalf("missing a transfer leg: %+v", records)
	}
	if out.Account != "Checking" || out.TargetAccount != "Savings" || out.Amount != 40 {
		t.Fatalf("unexpected outgoing leg: %+v", *out)
	}
	if in.Account != "Savings" || in.TargetAccount != "Checking" || in.Amount != 40 {
		t.Fatalf("unexpected incoming leg: %+v", *in)
	}
}

func TestRecordTransferInsufficientFunds(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	source := seedAccount(t, st, "Checking", 50)
	target := seedAccount(t, st, "Savings", 0)

	err := svc.RecordTransfer(ctx, user, "100", source, target)
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	src, _ := st.GetAccount(ctx, user, source)
	dst, _ := st.GetAccount(ctx, user, target)
	if src.Balance != 50 || dst.Balance != 0 {
		t.Fatalf("balances must be unchanged, got %v/%v", src.Balance, dst.Balance)
	}
	records, _ := st.ListTransactions(ctx, user)
	if len(records) != 0 {
		t.Fatalf("no records may be created on rejection, got %d", len(records))
	}
}

func TestRecordTransferSameAccount(t *testing.T) {
	svc, st := newService(t)
	id := seedAccount(t, st, "Checking", 100)

	err := svc.RecordTransfer(context.Background(), user, "10", id, id)
	if !errors.Is(err, core.ErrSameAccount) {
		t.Fatalf("expected ErrSameAccount, got %v", err)
	}
}

func TestRecordTransferZeroAmount(t *testing.T) {
	svc, st := newService(t)
	a := seedAccount(t, st, "A", 100)
	b := seedAccount(t, st, "B", 0)

	err := svc.RecordTransfer(context.Background(), user, "0", a, b)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero transfer, got %v", err)
	}
}

func TestTotalBalance(t *testing.T) {
	svc, st := newService(t)
	seedAccount(t, st, "A", 10)
	seedAccount(t, st, "B", -5)
	seedAccount(t, st, "C", 100.5)

	total, err := svc.TotalBalance(context.Background(), user)
	if err != nil {
		t.Fatalf("total balance: %v", err)
	}
	if total != 105.5 {
		t.Fatalf("expected 105.5, got %v", total)
	}
}

// Balance equals initial value plus the sum of signed applied amounts.
func TestBalanceMatchesLedger(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 100)

	ops := []struct {
		kind   core.TransactionType
		amount string
	}{
		{core.TypeIncome, "50"},
		{core.TypeExpense, "20"},
		{core.TypeIncome, "5.25"},
		{core.TypeExpense, "135.25"},
	}
	for _, op := range ops {
		var err error
		if op.kind == core.TypeIncome {
			err = svc.RecordIncome(ctx, user, op.amount, id, "", "", "")
		} else {
			err = svc.RecordExpense(ctx, user, op.amount, id, "", "", "")
		}
		if err != nil {
			t.Fatalf("%s %s: %v", op.kind, op.amount, err)
		}
	}

	records, _ := st.ListTransactions(ctx, user)
	var applied float64
	for _, rec := range records {
		applied += rec.Signed()
	}
	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != 100+applied {
		t.Fatalf("balance %v does not match initial+applied %v", a.Balance, 100+applied)
	}
	if a.Balance != 0 {
		t.Fatalf("expected final balance 0, got %v", a.Balance)
	}
}

// A failing record insert after the balance committed is logged, not rolled
// back: the operation reports success and the balance keeps the mutation.
func TestIncomeRecordInsertFailureKeepsBalance(t *testing.T) {
	st := memory.New()
	flaky := &appendFailingStore{Store: st}
	svc := NewService(flaky, nil)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 0)

	flaky.fail = true
	if err := svc.RecordIncome(ctx, user, "30", id, "", "", ""); err != nil {
		t.Fatalf("expected success despite record failure, got %v", err)
	}

	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != 30 {
		t.Fatalf("balance mutation must stand, got %v", a.Balance)
	}
	records, _ := st.ListTransactions(ctx, user)
	if len(records) != 0 {
		t.Fatalf("record insert was supposed to fail, got %d records", len(records))
	}
}

func TestRegisterUserSeedsInitialAccount(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	if err := svc.RegisterUser(ctx, user, "u1@example.com", "Pat"); err != nil {
		t.Fatalf("register: %v", err)
	}

	profile, err := st.GetProfile(ctx, user)
	if err != nil || profile.Username != "Pat" || profile.Email != "u1@example.com" {
		t.Fatalf("unexpected profile: %+v err=%v", profile, err)
	}

	accounts, _ := st.ListAccounts(ctx, user)
	if len(accounts) != 1 {
		t.Fatalf("expected one seeded account, got %d", len(accounts))
	}
	a := accounts[0]
	if a.CardName != "General" || a.CardCategory != core.CategoryCash || a.Balance != 0 {
		t.Fatalf("unexpected initial account: %+v", a)
	}
}

func TestUpdateAccountDetailsPreservesBalance(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 75)

	err := svc.UpdateAccountDetails(ctx, user, core.Account{
		ID:           id,
		CardCategory: core.CategoryBank,
		CardName:     "Debit Card",
		CardNumber:   "1234 5678 9012 3456",
		Balance:      9999, // must be ignored
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	a, _ := st.GetAccount(ctx, user, id)
	if a.CardName != "Debit Card" || a.CardCategory != core.CategoryBank {
		t.Fatalf("details not updated: %+v", a)
	}
	if a.Balance != 75 {
		t.Fatalf("balance must only move through the ledger, got %v", a.Balance)
	}
}

func TestHistoryGroupsByDay(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 0)

	if err := svc.RecordIncome(ctx, user, "10", id, "", "2026-01-02 09:00:00", ""); err != nil {
		t.Fatalf("income: %v", err)
	}
	if err := svc.RecordExpense(ctx, user, "4", id, "", "2026-01-03 09:00:00", ""); err != nil {
		t.Fatalf("expense: %v", err)
	}

	groups, err := svc.History(ctx, user)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(groups) != 2 || groups[0].Day != "2026-01-03" {
		t.Fatalf("unexpected grouping: %+v", groups)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	st := memory.New()
	svc := NewService(st, failingPublisher{})
	ctx := context.Background()
	id := seedAccount(t, st, "Wallet", 0)

	if err := svc.RecordIncome(ctx, user, "10", id, "", "", ""); err != nil {
		t.Fatalf("publish failure must not fail the mutation: %v", err)
	}
	a, _ := st.GetAccount(ctx, user, id)
	if a.Balance != 10 {
		t.Fatalf("expected balance 10, got %v", a.Balance)
	}
}

// appendFailingStore fails AppendTransaction on demand while delegating
// everything else to the wrapped store.
type appendFailingStore struct {
	*memory.Store
	fail bool
}

func (s *appendFailingStore) AppendTransaction(ctx context.Context, userID string, rec core.Transaction) (string, error) {
	if s.fail {
		return "", errors.New("store unavailable")
	}
	return s.Store.AppendTransaction(ctx, userID, rec)
}

var _ store.Store = (*appendFailingStore)(nil)

type failingPublisher struct{}

func (failingPublisher) PublishLedgerEvent(context.Context, *events.LedgerEvent) error {
	return errors.New("broker down")
}
