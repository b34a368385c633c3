// Package sqlite is the embedded-database store backend. The atomic
// primitive maps onto SQL transactions: sqlite serializes writers, so a
// BEGIN..COMMIT block gives the all-or-nothing semantics the contract asks
// for without explicit conflict retry.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

type Repository struct {
	db *sql.DB
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, userID, accountID string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, card_category, card_number, card_name, balance, card_color, date_created
		 FROM accounts WHERE user_id = ? AND id = ?`, userID, accountID)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_category, card_number, card_name, balance, card_color, date_created
		 FROM accounts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) PutAccount(ctx context.Context, userID string, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, card_category, card_number, card_name, balance, card_color, date_created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   card_category = excluded.card_category,
		   card_number   = excluded.card_number,
		   card_name     = excluded.card_name,
		   balance       = excluded.balance,
		   card_color    = excluded.card_color,
		   date_created  = excluded.date_created`,
		a.ID, userID, string(a.CardCategory), a.CardNumber, a.CardName, a.Balance, a.CardColor, a.DateCreated)
	if err != nil {
		return "", fmt.Errorf("put account: %w", err)
	}
	return a.ID, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, userID, accountID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (r *Repository) AppendTransaction(ctx context.Context, userID string, rec core.Transaction) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, account, amount, category, date, notes, target_account)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, string(rec.Type), rec.Account, rec.Amount, rec.Category, rec.Date, rec.Notes, nullable(rec.TargetAccount))
	if err != nil {
		return "", fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Ledger record saved",
		"id", id,
		"type", rec.Type,
		"account", rec.Account,
		"amount", rec.Amount)

	return id, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, account, amount, category, date, notes, target_account
		 FROM transactions WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var typ string
		var target sql.NullString
		if err := rows.Scan(&typ, &t.Account, &t.Amount, &t.Category, &t.Date, &t.Notes, &target); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.TargetAccount = target.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT username, email, balance, created_at FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.Username, &p.Email, &p.Balance, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *Repository) PutProfile(ctx context.Context, userID string, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, username, email, balance, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   username = excluded.username,
		   email    = excluded.email,
		   balance  = excluded.balance`,
		userID, p.Username, p.Email, p.Balance, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

func (r *Repository) RunBalanceTx(ctx context.Context, userID string, fn func(tx store.BalanceTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance tx: %w", err)
	}

	if err := fn(&sqlTx{ctx: ctx, tx: tx, userID: userID}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit balance tx: %w", err)
	}
	return nil
}

type sqlTx struct {
	ctx    context.Context
	tx     *sql.Tx
	userID string
}

func (t *sqlTx) Account(accountID string) (core.Account, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT id, card_category, card_number, card_name, balance, card_color, date_created
		 FROM accounts WHERE user_id = ? AND id = ?`, t.userID, accountID)
	return scanAccount(row)
}

func (t *sqlTx) SetBalance(accountID string, balance float64) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET balance = ? WHERE user_id = ? AND id = ?`,
		balance, t.userID, accountID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (t *sqlTx) Append(rec core.Transaction) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO transactions (id, user_id, type, account, amount, category, date, notes, target_account)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), t.userID, string(rec.Type), rec.Account, rec.Amount, rec.Category, rec.Date, rec.Notes, nullable(rec.TargetAccount))
	if err != nil {
		return fmt.Errorf("append transaction in tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var cat string
	err := row.Scan(&a.ID, &cat, &a.CardNumber, &a.CardName, &a.Balance, &a.CardColor, &a.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.CardCategory = core.CardCategory(cat)
	if a.CardName == "" {
		return core.Account{}, &core.DecodeError{Doc: "account", Field: "card_name"}
	}
	return a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
