// Package storage provides the SQLite-backed ledger.Store. Dates are
// stored as YYYY-MM-DD text so range scans compare lexicographically.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// storeErr maps driver failures into the ledger error taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ledger.ErrStoreUnavailable, err)
}

// parseStoredDate never fails a read: a row with mangled date text
// comes back as the zero Date and is tallied by aggregation instead of
// being dropped.
func parseStoredDate(ctx context.Context, raw, table, id string) core.Date {
	if raw == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored date is unparseable, keeping row with zero date",
			"table", table, "id", id, "raw", raw)
		return core.Date{}
	}
	return d
}

const transactionColumns = `id, type, amount_cents, category, account, account_id, note, tx_date, created_at, is_auto`

func scanTransaction(ctx context.Context, row interface {
	Scan(dest ...any) error
}) (core.Transaction, error) {
	var (
		t       core.Transaction
		rawDate string
	)
	err := row.Scan(&t.ID, &t.Type, &t.Amount.Cents, &t.Category, &t.Account,
		&t.AccountID, &t.Note, &rawDate, &t.CreatedAt, &t.IsAuto)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = parseStoredDate(ctx, rawDate, "transactions", t.ID)
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, account, account_id, note, tx_date, created_at, is_auto)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Type), t.Amount.Cents, t.Category, t.Account,
		t.AccountID, t.Note, t.Date.String(), t.CreatedAt, t.IsAuto)
	if err != nil {
		return core.Transaction{}, storeErr("create transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`,
		userID, id)
	t, err := scanTransaction(ctx, row)
	if err != nil {
		return core.Transaction{}, storeErr("get transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, category = ?, account = ?, account_id = ?, note = ?, tx_date = ?, is_auto = ?
		WHERE user_id = ? AND id = ?`,
		string(t.Type), t.Amount.Cents, t.Category, t.Account, t.AccountID,
		t.Note, t.Date.String(), t.IsAuto, userID, t.ID)
	if err != nil {
		return storeErr("update transaction", err)
	}
	return requireRow(res, "update transaction")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return storeErr("delete transaction", err)
	}
	return requireRow(res, "delete transaction")
}

func (r *SQLiteRepository) ListInRange(ctx context.Context, userID string, start, end core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND ((tx_date >= ? AND tx_date <= ?) OR tx_date = '')
		ORDER BY tx_date, created_at`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(ctx, rows)
		if err != nil {
			return nil, storeErr("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list transactions", err)
	}
	return out, nil
}

const subscriptionColumns = `id, name, amount_cents, category, frequency, next_due, active`

func scanSubscription(ctx context.Context, row interface {
	Scan(dest ...any) error
}) (core.RecurringSubscription, error) {
	var (
		s       core.RecurringSubscription
		rawDate string
	)
	err := row.Scan(&s.ID, &s.Name, &s.Amount.Cents, &s.Category, &s.Frequency, &rawDate, &s.Active)
	if err != nil {
		return core.RecurringSubscription{}, err
	}
	s.NextDue = parseStoredDate(ctx, rawDate, "subscriptions", s.ID)
	return s, nil
}

func (r *SQLiteRepository) ListDue(ctx context.Context, userID string, asOf core.Date) ([]core.RecurringSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = ? AND active = 1 AND next_due <= ? AND next_due != ''
		ORDER BY next_due`,
		userID, asOf.String())
	if err != nil {
		return nil, storeErr("list due subscriptions", err)
	}
	defer rows.Close()

	var out []core.RecurringSubscription
	for rows.Next() {
		s, err := scanSubscription(ctx, rows)
		if err != nil {
			return nil, storeErr("scan subscription", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list due subscriptions", err)
	}
	return out, nil
}

// CommitBatch runs the whole recurring sweep batch in one transaction.
func (r *SQLiteRepository) CommitBatch(ctx context.Context, userID string, batch ledger.Batch) ([]core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin batch", err)
	}
	defer tx.Rollback()

	createdAt := time.Now().UTC()
	created := make([]core.Transaction, 0, len(batch.Create))
	for _, t := range batch.Create {
		t.ID = uuid.NewString()
		t.CreatedAt = createdAt
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, type, amount_cents, category, account, account_id, note, tx_date, created_at, is_auto)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, userID, string(t.Type), t.Amount.Cents, t.Category,
			t.Account, t.AccountID, t.Note, t.Date.String(), createdAt, t.IsAuto)
		if err != nil {
			return nil, storeErr("batch create transaction", err)
		}
		created = append(created, t)
	}
	for _, adv := range batch.Advance {
		res, err := tx.ExecContext(ctx,
			`UPDATE subscriptions SET next_due = ? WHERE user_id = ? AND id = ?`,
			adv.NextDue.String(), userID, adv.SubscriptionID)
		if err != nil {
			return nil, storeErr("batch advance subscription", err)
		}
		if err := requireRow(res, "batch advance subscription"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit batch", err)
	}
	return created, nil
}

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID string) ([]core.RecurringSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	defer rows.Close()

	var out []core.RecurringSubscription
	for rows.Next() {
		s, err := scanSubscription(ctx, rows)
		if err != nil {
			return nil, storeErr("scan subscription", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list subscriptions", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, userID string, s core.RecurringSubscription) (core.RecurringSubscription, error) {
	s.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, name, amount_cents, category, frequency, next_due, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, userID, s.Name, s.Amount.Cents, s.Category, string(s.Frequency),
		s.NextDue.String(), s.Active)
	if err != nil {
		return core.RecurringSubscription{}, storeErr("create subscription", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, userID string, s core.RecurringSubscription) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET name = ?, amount_cents = ?, category = ?, frequency = ?, next_due = ?, active = ?
		WHERE user_id = ? AND id = ?`,
		s.Name, s.Amount.Cents, s.Category, string(s.Frequency),
		s.NextDue.String(), s.Active, userID, s.ID)
	if err != nil {
		return storeErr("update subscription", err)
	}
	return requireRow(res, "update subscription")
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return storeErr("delete subscription", err)
	}
	return requireRow(res, "delete subscription")
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, balance_cents FROM accounts
		WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, storeErr("list accounts", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.Balance.Cents); err != nil {
			return nil, storeErr("scan account", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list accounts", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, userID string, a core.Account) (core.Account, error) {
	a.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, kind, balance_cents)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, userID, a.Name, a.Kind, a.Balance.Cents)
	if err != nil {
		return core.Account{}, storeErr("create account", err)
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, userID string, a core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, kind = ?, balance_cents = ?
		WHERE user_id = ? AND id = ?`,
		a.Name, a.Kind, a.Balance.Cents, userID, a.ID)
	if err != nil {
		return storeErr("update account", err)
	}
	return requireRow(res, "update account")
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return storeErr("delete account", err)
	}
	return requireRow(res, "delete account")
}

// ListCategories returns the user's own categories plus the seeded
// global set (user_id '').
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type FROM categories
		WHERE user_id = ? OR user_id = '' ORDER BY type, name`,
		userID)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, storeErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list categories", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type)
		VALUES (?, ?, ?, ?)`,
		c.ID, userID, c.Name, string(c.Type))
	if err != nil {
		return core.Category{}, storeErr("create category", err)
	}
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return storeErr("delete category", err)
	}
	return requireRow(res, "delete category")
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, userID string, kind core.RecordKind) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, name, amount_cents, progress_cents, due, notes FROM records
		WHERE user_id = ? AND kind = ? ORDER BY name`,
		userID, string(kind))
	if err != nil {
		return nil, storeErr("list records", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec     core.Record
			rawDate string
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Name, &rec.Amount.Cents,
			&rec.Progress.Cents, &rawDate, &rec.Notes); err != nil {
			return nil, storeErr("scan record", err)
		}
		rec.Due = parseStoredDate(ctx, rawDate, "records", rec.ID)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list records", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, userID string, rec core.Record) (core.Record, error) {
	rec.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records (id, user_id, kind, name, amount_cents, progress_cents, due, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, userID, string(rec.Kind), rec.Name, rec.Amount.Cents,
		rec.Progress.Cents, rec.Due.String(), rec.Notes)
	if err != nil {
		return core.Record{}, storeErr("create record", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, userID string, rec core.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE records SET name = ?, amount_cents = ?, progress_cents = ?, due = ?, notes = ?
		WHERE user_id = ? AND id = ? AND kind = ?`,
		rec.Name, rec.Amount.Cents, rec.Progress.Cents, rec.Due.String(),
		rec.Notes, userID, rec.ID, string(rec.Kind))
	if err != nil {
		return storeErr("update record", err)
	}
	return requireRow(res, "update record")
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return storeErr("delete record", err)
	}
	return requireRow(res, "delete record")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
