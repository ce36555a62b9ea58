package statement

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/validation"
)

// Service answers read-only balance and statement queries.
type Service struct {
	store ledger.Store
}

// NewService constructs a statement service.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// Balance is the current balance of one account.
type Balance struct {
	AccountNumber int64
	Balance       decimal.Decimal
}

// Statement holds the four per-account histories, each ordered by timestamp.
// The sequences are never merged into one timeline.
type Statement struct {
	AccountNumber     int64
	Balance           decimal.Decimal
	Deposits          []ledger.Deposit
	Withdrawals       []ledger.Withdrawal
	TransfersReceived []ledger.Transfer
	TransfersSent     []ledger.Transfer
}

// Balance returns the account balance after checking the password.
func (s *Service) Balance(ctx context.Context, accountNumber, password string) (Balance, error) {
	var out Balance
	err := s.store.View(ctx, func(r ledger.Reader) error {
		account, err := authorize(ctx, r, accountNumber, password)
		if err != nil {
			return err
		}
		out = Balance{AccountNumber: account.Number, Balance: account.Balance}
		return nil
	})
	return out, err
}

// Statement rebuilds the account history from the three ledgers.
func (s *Service) Statement(ctx context.Context, accountNumber, password string) (Statement, error) {
	var out Statement
	err := s.store.View(ctx, func(r ledger.Reader) error {
		account, err := authorize(ctx, r, accountNumber, password)
		if err != nil {
			return err
		}
		n := account.Number

		deposits, err := r.Deposits(ctx)
		if err != nil {
			return err
		}
		withdrawals, err := r.Withdrawals(ctx)
		if err != nil {
			return err
		}
		transfers, err := r.Transfers(ctx)
		if err != nil {
			return err
		}

		out = Statement{
			AccountNumber: n,
			Balance:       account.Balance,
			Deposits: chronological(deposits, func(d ledger.Deposit) bool { return d.AccountNumber == n },
				func(d ledger.Deposit) time.Time { return d.Timestamp }),
			Withdrawals: chronological(withdrawals, func(w ledger.Withdrawal) bool { return w.AccountNumber == n },
				func(w ledger.Withdrawal) time.Time { return w.Timestamp }),
			TransfersReceived: chronological(transfers, func(t ledger.Transfer) bool { return t.DestinationAccountNumber == n },
				transferTime),
			TransfersSent: chronological(transfers, func(t ledger.Transfer) bool { return t.SourceAccountNumber == n },
				transferTime),
		}
		return nil
	})
	return out, err
}

func authorize(ctx context.Context, r ledger.Reader, accountNumber, password string) (ledger.Account, error) {
	account, err := validation.AccountReference(ctx, r, accountNumber)
	if err != nil {
		return ledger.Account{}, err
	}
	if err := validation.Password(account, password); err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

func transferTime(t ledger.Transfer) time.Time { return t.Timestamp }

// chronological keeps the records matching keep and stable-sorts them by
// timestamp, so ties stay in append order. The input slice is not modified.
func chronological[T any](records []T, keep func(T) bool, at func(T) time.Time) []T {
	out := make([]T, 0)
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return at(a).Compare(at(b))
	})
	return out
}
