package ledger

import (
	"context"
)

// Reader exposes a consistent read view over the account table and the three
// ledgers. Ledger slices are returned in append order.
type Reader interface {
	Account(ctx context.Context, number int64) (Account, error)
	Accounts(ctx context.Context) ([]Account, error)
	Deposits(ctx context.Context) ([]Deposit, error)
	Withdrawals(ctx context.Context) ([]Withdrawal, error)
	Transfers(ctx context.Context) ([]Transfer, error)
}

// Tx is a read-write transaction. Writes become visible to other callers only
// once the enclosing Update returns nil.
type Tx interface {
	Reader
	NextAccountNumber(ctx context.Context) (int64, error)
	PutAccount(ctx context.Context, account Account) error
	DeleteAccount(ctx context.Context, number int64) error
	AppendDeposit(ctx context.Context, record Deposit) error
	AppendWithdrawal(ctx context.Context, record Withdrawal) error
	AppendTransfer(ctx context.Context, record Transfer) error
}

// Store defines the contract implemented by storage backends (memory, file,
// Postgres).
//
// Update runs fn with exclusive write access; all mutating operations are
// serialized through it. If fn returns an error nothing it staged is kept and
// the error is returned unchanged. Persistence failures surface as
// *StorageError. View runs fn against a snapshot that never contains a
// partially applied Update.
type Store interface {
	View(ctx context.Context, fn func(r Reader) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
