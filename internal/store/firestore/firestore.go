// Package firestore is the remote document-database store backend. Account
// and transaction documents live in per-user subcollections
// (users/{uid}/accounts, users/{uid}/transactions), and the atomic primitive
// maps onto Firestore transactions, which re-run the closure on write
// conflict under optimistic concurrency.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cashflow/internal/core"
	"cashflow/internal/store"
)

type Client struct {
	fs *firestore.Client
}

// New connects to the project's Firestore database. credentialsFile may be
// empty, in which case application default credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Client{fs: fs}, nil
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// Stored document shapes. Field names follow the backend schema, so the
// core types stay free of persistence tags.
type accountDoc struct {
	ID           string  `firestore:"id"`
	CardCategory string  `firestore:"cardCategory"`
	CardNumber   string  `firestore:"cardNumber"`
	CardName     string  `firestore:"cardName"`
	Balance      float64 `firestore:"balance"`
	CardColor    string  `firestore:"cardColor"`
	DateCreated  int64   `firestore:"dateCreated"`
}

type transactionDoc struct {
	Type          string  `firestore:"type"`
	Account       string  `firestore:"account"`
	Amount        float64 `firestore:"amount"`
	Category      string  `firestore:"category"`
	Date          string  `firestore:"date"`
	Notes         string  `firestore:"notes"`
	TargetAccount string  `firestore:"targetAccount,omitempty"`
}

type profileDoc struct {
	Username  string  `firestore:"username"`
	Email     string  `firestore:"email"`
	Balance   float64 `firestore:"balance"`
	CreatedAt int64   `firestore:"createdAt"`
}

func (c *Client) accounts(userID string) *firestore.CollectionRef {
	return c.fs.Collection("users").Doc(userID).Collection("accounts")
}

func (c *Client) transactions(userID string) *firestore.CollectionRef {
	return c.fs.Collection("users").Doc(userID).Collection("transactions")
}

func (c *Client) GetAccount(ctx context.Context, userID, accountID string) (core.Account, error) {
	snap, err := c.accounts(userID).Doc(accountID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return decodeAccount(snap)
}

func (c *Client) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	var out []core.Account
	iter := c.accounts(userID).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		a, err := decodeAccount(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *Client) PutAccount(ctx context.Context, userID string, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	ref := c.accounts(userID).Doc(a.ID)
	if a.ID == "" {
		ref = c.accounts(userID).NewDoc()
		a.ID = ref.ID
	}
	if _, err := ref.Set(ctx, encodeAccount(a)); err != nil {
		return "", fmt.Errorf("put account: %w", err)
	}
	return a.ID, nil
}

func (c *Client) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := c.accounts(userID).Doc(accountID).Delete(ctx); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (c *Client) AppendTransaction(ctx context.Context, userID string, rec core.Transaction) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	ref, _, err := c.transactions(userID).Add(ctx, encodeTransaction(rec))
	if err != nil {
		return "", fmt.Errorf("append transaction: %w", err)
	}
	return ref.ID, nil
}

func (c *Client) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	iter := c.transactions(userID).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		t, err := decodeTransaction(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	snap, err := c.fs.Collection("users").Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return core.Profile{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if d.Username == "" {
		return core.Profile{}, &core.DecodeError{Doc: "profile", Field: "username"}
	}
	return core.Profile(d), nil
}

func (c *Client) PutProfile(ctx context.Context, userID string, p core.Profile) error {
	if _, err := c.fs.Collection("users").Doc(userID).Set(ctx, profileDoc(p)); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// RunBalanceTx delegates to a Firestore transaction. Firestore requires all
// reads before any write and retries fn on conflict, which is exactly the
// contract BalanceTx exposes.
func (c *Client) RunBalanceTx(ctx context.Context, userID string, fn func(tx store.BalanceTx) error) error {
	return c.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(&fsTx{client: c, tx: tx, userID: userID})
	})
}

type fsTx struct {
	client *Client
	tx     *firestore.Transaction
	userID string
}

func (t *fsTx) Account(accountID string) (core.Account, error) {
	snap, err := t.tx.Get(t.client.accounts(t.userID).Doc(accountID))
	if status.Code(err) == codes.NotFound {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("tx get account: %w", err)
	}
	return decodeAccount(snap)
}

func (t *fsTx) SetBalance(accountID string, balance float64) error {
	ref := t.client.accounts(t.userID).Doc(accountID)
	if err := t.tx.Update(ref, []firestore.Update{{Path: "balance", Value: balance}}); err != nil {
		return fmt.Errorf("tx set balance: %w", err)
	}
	return nil
}

func (t *fsTx) Append(rec core.Transaction) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	ref := t.client.transactions(t.userID).NewDoc()
	if err := t.tx.Create(ref, encodeTransaction(rec)); err != nil {
		return fmt.Errorf("tx append transaction: %w", err)
	}
	return nil
}

func encodeAccount(a core.Account) accountDoc {
	return accountDoc{
		ID:           a.ID,
		CardCategory: string(a.CardCategory),
		CardNumber:   a.CardNumber,
		CardName:     a.CardName,
		Balance:      a.Balance,
		CardColor:    a.CardColor,
		DateCreated:  a.DateCreated,
	}
}

func decodeAccount(snap *firestore.DocumentSnapshot) (core.Account, error) {
	var d accountDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Account{}, fmt.Errorf("decode account %s: %w", snap.Ref.ID, err)
	}
	if d.CardName == "" {
		return core.Account{}, &core.DecodeError{Doc: "account", Field: "cardName"}
	}
	if d.ID == "" {
		d.ID = snap.Ref.ID
	}
	return core.Account{
		ID:           d.ID,
		CardCategory: core.CardCategory(d.CardCategory),
		CardNumber:   d.CardNumber,
		CardName:     d.CardName,
		Balance:      d.Balance,
		CardColor:    d.CardColor,
		DateCreated:  d.DateCreated,
	}, nil
}

func encodeTransaction(t core.Transaction) transactionDoc {
	return transactionDoc{
		Type:          string(t.Type),
		Account:       t.Account,
		Amount:        t.Amount,
		Category:      t.Category,
		Date:          t.Date,
		Notes:         t.Notes,
		TargetAccount: t.TargetAccount,
	}
}

func decodeTransaction(snap *firestore.DocumentSnapshot) (core.Transaction, error) {
	var d transactionDoc
	if err := snap.DataTo(&d); err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", snap.Ref.ID, err)
	}
	if d.Account == "" {
		return core.Transaction{}, &core.DecodeError{Doc: "transaction", Field: "account"}
	}
	return core.Transaction{
		Type:          core.TransactionType(d.Type),
		Account:       d.Account,
		Amount:        d.Amount,
		Category:      d.Category,
		Date:          d.Date,
		Notes:         d.Notes,
		TargetAccount: d.TargetAccount,
	}, nil
}
