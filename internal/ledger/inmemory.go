package ledger

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type state struct {
	nextNumber  int64
	accounts    map[int64]Account
	deposits    []Deposit
	withdrawals []Withdrawal
	transfers   []Transfer
}

func newState() *state {
	return &state{accounts: make(map[int64]Account)}
}

// journal durably records a staged transaction before it is applied to the
// in-memory state.
type journal interface {
	commit(tx *memTx) error
	close() error
}

type inMemoryStore struct {
	mu      sync.RWMutex
	state   *state
	journal journal
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and single-process deployments without durability.
func NewInMemory() Store {
	return newStore(newState(), nil)
}

func newStore(st *state, j journal) *inMemoryStore {
	return &inMemoryStore{state: st, journal: j}
}

func (s *inMemoryStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newMemTx(s.state))
}

func (s *inMemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemTx(s.state)
	if err := fn(tx); err != nil {
		return err
	}
	if tx.empty() {
		return nil
	}
	if s.journal != nil {
		if err := s.journal.commit(tx); err != nil {
			return storageErr("commit", err)
		}
	}
	tx.applyTo(s.state)
	return nil
}

func (s *inMemoryStore) Ping(context.Context) error { return nil }

func (s *inMemoryStore) Close() error {
	if s.journal == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.close()
}

// memTx overlays staged writes on top of a base state. It doubles as the
// Reader handed to View callers, in which case nothing is ever staged.
type memTx struct {
	base        *state
	nextNumber  int64
	puts        map[int64]Account
	deletes     map[int64]struct{}
	deposits    []Deposit
	withdrawals []Withdrawal
	transfers   []Transfer
}

func newMemTx(base *state) *memTx {
	return &memTx{
		base:       base,
		nextNumber: base.nextNumber,
		puts:       make(map[int64]Account),
		deletes:    make(map[int64]struct{}),
	}
}

func (t *memTx) empty() bool {
	return t.nextNumber == t.base.nextNumber &&
		len(t.puts) == 0 && len(t.deletes) == 0 &&
		len(t.deposits) == 0 && len(t.withdrawals) == 0 && len(t.transfers) == 0
}

func (t *memTx) applyTo(st *state) {
	st.nextNumber = t.nextNumber
	for number := range t.deletes {
		delete(st.accounts, number)
	}
	for number, account := range t.puts {
		st.accounts[number] = account
	}
	st.deposits = append(st.deposits, t.deposits...)
	st.withdrawals = append(st.withdrawals, t.withdrawals...)
	st.transfers = append(st.transfers, t.transfers...)
}

func (t *memTx) Account(_ context.Context, number int64) (Account, error) {
	if _, gone := t.deletes[number]; gone {
		return Account{}, ErrNotFound
	}
	if account, ok := t.puts[number]; ok {
		return account, nil
	}
	account, ok := t.base.accounts[number]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (t *memTx) Accounts(_ context.Context) ([]Account, error) {
	out := make([]Account, 0, len(t.base.accounts)+len(t.puts))
	for number, account := range t.base.accounts {
		if _, gone := t.deletes[number]; gone {
			continue
		}
		if _, staged := t.puts[number]; staged {
			continue
		}
		out = append(out, account)
	}
	for _, account := range t.puts {
		out = append(out, account)
	}
	slices.SortFunc(out, func(a, b Account) int { return cmp.Compare(a.Number, b.Number) })
	return out, nil
}

func (t *memTx) Deposits(_ context.Context) ([]Deposit, error) {
	return concat(t.base.deposits, t.deposits), nil
}

func (t *memTx) Withdrawals(_ context.Context) ([]Withdrawal, error) {
	return concat(t.base.withdrawals, t.withdrawals), nil
}

func (t *memTx) Transfers(_ context.Context) ([]Transfer, error) {
	return concat(t.base.transfers, t.transfers), nil
}

func (t *memTx) NextAccountNumber(_ context.Context) (int64, error) {
	t.nextNumber++
	return t.nextNumber, nil
}

func (t *memTx) PutAccount(_ context.Context, account Account) error {
	if account.Number <= 0 {
		return Invalid("account number must be positive")
	}
	delete(t.deletes, account.Number)
	t.puts[account.Number] = account
	return nil
}

func (t *memTx) DeleteAccount(ctx context.Context, number int64) error {
	if _, err := t.Account(ctx, number); err != nil {
		return err
	}
	delete(t.puts, number)
	t.deletes[number] = struct{}{}
	return nil
}

func (t *memTx) AppendDeposit(_ context.Context, record Deposit) error {
	t.deposits = append(t.deposits, record)
	return nil
}

func (t *memTx) AppendWithdrawal(_ context.Context, record Withdrawal) error {
	t.withdrawals = append(t.withdrawals, record)
	return nil
}

func (t *memTx) AppendTransfer(_ context.Context, record Transfer) error {
	t.transfers = append(t.transfers, record)
	return nil
}

func concat[T any](committed, staged []T) []T {
	out := make([]T, 0, len(committed)+len(staged))
	out = append(out, committed...)
	return append(out, staged...)
}
