package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

// writerLockKey is the advisory lock every Update holds, making Postgres writes
// as serialized as the in-memory backends.
const writerLockKey int64 = 0x62616e6b

const uniqueViolation = "23505"

// PostgresStore persists accounts and ledgers in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store. The pool is owned by the
// caller.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables the store needs if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

// View runs fn inside a read-only repeatable-read transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(r Reader) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return storageErr("commit", tx.Commit(ctx))
}

// Update runs fn inside a transaction holding the global writer lock.
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
		return storageErr("lock", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return storageErr("commit", tx.Commit(ctx))
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the pool is closed by its owner.
func (s *PostgresStore) Close() error { return nil }

type pgTx struct {
	tx pgx.Tx
}

const accountColumns = `number, balance::text, name, national_id, birth_date, phone, email, password_hash, created_at`

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a       Account
		balance string
	)
	err := row.Scan(&a.Number, &balance, &a.Owner.Name, &a.Owner.NationalID, &a.Owner.BirthDate,
		&a.Owner.Phone, &a.Owner.Email, &a.Owner.PasswordHash, &a.CreatedAt)
	if err != nil {
		return Account{}, err
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("account %d balance: %w", a.Number, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func (t *pgTx) Account(ctx context.Context, number int64) (Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, storageErr("load account", err)
	}
	return account, nil
}

func (t *pgTx) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY number`)
	if err != nil {
		return nil, storageErr("load accounts", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("load accounts", err)
		}
		out = append(out, account)
	}
	return out, storageErr("load accounts", rows.Err())
}

func (t *pgTx) Deposits(ctx context.Context) ([]Deposit, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, occurred_at, account_number, amount::text FROM deposits ORDER BY seq`)
	if err != nil {
		return nil, storageErr("load deposits", err)
	}
	defer rows.Close()

	var out []Deposit
	for rows.Next() {
		var (
			d      Deposit
			amount string
		)
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.AccountNumber, &amount); err != nil {
			return nil, storageErr("load deposits", err)
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, storageErr("load deposits", err)
		}
		d.Timestamp = d.Timestamp.UTC()
		out = append(out, d)
	}
	return out, storageErr("load deposits", rows.Err())
}

func (t *pgTx) Withdrawals(ctx context.Context) ([]Withdrawal, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, occurred_at, account_number, amount::text FROM withdrawals ORDER BY seq`)
	if err != nil {
		return nil, storageErr("load withdrawals", err)
	}
	defer rows.Close()

	var out []Withdrawal
	for rows.Next() {
		var (
			w      Withdrawal
			amount string
		)
		if err := rows.Scan(&w.ID, &w.Timestamp, &w.AccountNumber, &amount); err != nil {
			return nil, storageErr("load withdrawals", err)
		}
		if w.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, storageErr("load withdrawals", err)
		}
		w.Timestamp = w.Timestamp.UTC()
		out = append(out, w)
	}
	return out, storageErr("load withdrawals", rows.Err())
}

func (t *pgTx) Transfers(ctx context.Context) ([]Transfer, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, occurred_at, source_account_number, destination_account_number, amount::text
        FROM transfers ORDER BY seq`)
	if err != nil {
		return nil, storageErr("load transfers", err)
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var (
			tr     Transfer
			amount string
		)
		if err := rows.Scan(&tr.ID, &tr.Timestamp, &tr.SourceAccountNumber, &tr.DestinationAccountNumber, &amount); err != nil {
			return nil, storageErr("load transfers", err)
		}
		if tr.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, storageErr("load transfers", err)
		}
		tr.Timestamp = tr.Timestamp.UTC()
		out = append(out, tr)
	}
	return out, storageErr("load transfers", rows.Err())
}

func (t *pgTx) NextAccountNumber(ctx context.Context) (int64, error) {
	var number int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval('account_number_seq')`).Scan(&number); err != nil {
		return 0, storageErr("next account number", err)
	}
	return number, nil
}

func (t *pgTx) PutAccount(ctx context.Context, a Account) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO accounts (number, balance, name, national_id, birth_date, phone, email, password_hash, created_at)
        VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (number) DO UPDATE SET
            balance = EXCLUDED.balance,
            name = EXCLUDED.name,
            national_id = EXCLUDED.national_id,
            birth_date = EXCLUDED.birth_date,
            phone = EXCLUDED.phone,
            email = EXCLUDED.email,
            password_hash = EXCLUDED.password_hash`,
		a.Number, a.Balance.String(), a.Owner.Name, a.Owner.NationalID, a.Owner.BirthDate,
		a.Owner.Phone, a.Owner.Email, a.Owner.PasswordHash, a.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		}
		return storageErr("save account", err)
	}
	return nil
}

func (t *pgTx) DeleteAccount(ctx context.Context, number int64) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE number = $1`, number)
	if err != nil {
		return storageErr("delete account", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) AppendDeposit(ctx context.Context, d Deposit) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO deposits (id, occurred_at, account_number, amount) VALUES ($1, $2, $3, $4::numeric)`,
		d.ID, d.Timestamp.UTC(), d.AccountNumber, d.Amount.String())
	return storageErr("append deposit", err)
}

func (t *pgTx) AppendWithdrawal(ctx context.Context, w Withdrawal) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO withdrawals (id, occurred_at, account_number, amount) VALUES ($1, $2, $3, $4::numeric)`,
		w.ID, w.Timestamp.UTC(), w.AccountNumber, w.Amount.String())
	return storageErr("append withdrawal", err)
}

func (t *pgTx) AppendTransfer(ctx context.Context, tr Transfer) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO transfers (id, occurred_at, source_account_number, destination_account_number, amount)
        VALUES ($1, $2, $3, $4, $5::numeric)`,
		tr.ID, tr.Timestamp.UTC(), tr.SourceAccountNumber, tr.DestinationAccountNumber, tr.Amount.String())
	return storageErr("append transfer", err)
}

var _ Store = (*PostgresStore)(nil)
