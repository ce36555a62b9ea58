package statement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/validation"
)

const password = "4321"

var base = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

func newStore(t *testing.T) ledger.Store {
	t.Helper()
	hash, err := validation.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	store := ledger.NewInMemory()
	ledger.SeedAccounts(store,
		ledger.Account{Number: 1, Balance: decimal.NewFromInt(75), Owner: ledger.Owner{PasswordHash: hash}},
		ledger.Account{Number: 2, Balance: decimal.NewFromInt(20), Owner: ledger.Owner{PasswordHash: hash}},
	)

	// Appended deliberately out of timestamp order; d2/d3 and t2/t3 share a timestamp.
	require.NoError(t, store.Update(context.Background(), func(tx ledger.Tx) error {
		ctx := context.Background()
		for _, d := range []ledger.Deposit{
			{ID: "d1", Timestamp: at(30), AccountNumber: 1, Amount: decimal.NewFromInt(50)},
			{ID: "d-other", Timestamp: at(1), AccountNumber: 2, Amount: decimal.NewFromInt(5)},
			{ID: "d2", Timestamp: at(10), AccountNumber: 1, Amount: decimal.NewFromInt(20)},
			{ID: "d3", Timestamp: at(10), AccountNumber: 1, Amount: decimal.NewFromInt(30)},
		} {
			if err := tx.AppendDeposit(ctx, d); err != nil {
				return err
			}
		}
		if err := tx.AppendWithdrawal(ctx, ledger.Withdrawal{ID: "w1", Timestamp: at(40), AccountNumber: 1, Amount: decimal.NewFromInt(10)}); err != nil {
			return err
		}
		for _, tr := range []ledger.Transfer{
			{ID: "t1", Timestamp: at(50), SourceAccountNumber: 1, DestinationAccountNumber: 2, Amount: decimal.NewFromInt(15)},
			{ID: "t2", Timestamp: at(20), SourceAccountNumber: 2, DestinationAccountNumber: 1, Amount: decimal.NewFromInt(1)},
			{ID: "t3", Timestamp: at(20), SourceAccountNumber: 2, DestinationAccountNumber: 1, Amount: decimal.NewFromInt(2)},
		} {
			if err := tx.AppendTransfer(ctx, tr); err != nil {
				return err
			}
		}
		return nil
	}))
	return store
}

func ids[T any](records []T, id func(T) string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, id(r))
	}
	return out
}

func TestStatementFiltersAndOrders(t *testing.T) {
	svc := NewService(newStore(t))

	st, err := svc.Statement(context.Background(), "1", password)
	require.NoError(t, err)

	assert.Equal(t, int64(1), st.AccountNumber)
	assert.True(t, st.Balance.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, []string{"d2", "d3", "d1"}, ids(st.Deposits, func(d ledger.Deposit) string { return d.ID }))
	assert.Equal(t, []string{"w1"}, ids(st.Withdrawals, func(w ledger.Withdrawal) string { return w.ID }))
	assert.Equal(t, []string{"t2", "t3"}, ids(st.TransfersReceived, func(tr ledger.Transfer) string { return tr.ID }))
	assert.Equal(t, []string{"t1"}, ids(st.TransfersSent, func(tr ledger.Transfer) string { return tr.ID }))

	for _, d := range st.Deposits {
		assert.Equal(t, int64(1), d.AccountNumber)
	}
	for i := 1; i < len(st.Deposits); i++ {
		assert.False(t, st.Deposits[i].Timestamp.Before(st.Deposits[i-1].Timestamp))
	}
}

func TestStatementForOtherSide(t *testing.T) {
	svc := NewService(newStore(t))

	st, err := svc.Statement(context.Background(), "2", password)
	require.NoError(t, err)

	assert.Equal(t, []string{"d-other"}, ids(st.Deposits, func(d ledger.Deposit) string { return d.ID }))
	assert.Empty(t, st.Withdrawals)
	assert.Equal(t, []string{"t1"}, ids(st.TransfersReceived, func(tr ledger.Transfer) string { return tr.ID }))
	assert.Equal(t, []string{"t2", "t3"}, ids(st.TransfersSent, func(tr ledger.Transfer) string { return tr.ID }))
}

func TestStatementLeavesLedgersInAppendOrder(t *testing.T) {
	store := newStore(t)
	svc := NewService(store)

	_, err := svc.Statement(context.Background(), "1", password)
	require.NoError(t, err)

	require.NoError(t, store.View(context.Background(), func(r ledger.Reader) error {
		deposits, err := r.Deposits(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d-other", "d2", "d3"}, ids(deposits, func(d ledger.Deposit) string { return d.ID }))
		return nil
	}))
}

func TestStatementRequiresValidReferenceAndPassword(t *testing.T) {
	svc := NewService(newStore(t))
	ctx := context.Background()

	_, err := svc.Statement(ctx, "1", "wrong")
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = svc.Statement(ctx, "99", password)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = svc.Statement(ctx, "one", password)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestBalance(t *testing.T) {
	svc := NewService(newStore(t))
	ctx := context.Background()

	b, err := svc.Balance(ctx, "2", password)
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.AccountNumber)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(20)))

	_, err = svc.Balance(ctx, "2", "")
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = svc.Balance(ctx, "", password)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestChronologicalIsStable(t *testing.T) {
	type rec struct {
		id string
		ts time.Time
	}
	records := []rec{{"a", at(5)}, {"b", at(1)}, {"c", at(5)}, {"d", at(1)}, {"e", at(3)}}

	got := chronological(records, func(rec) bool { return true }, func(r rec) time.Time { return r.ts })

	assert.Equal(t, []string{"b", "d", "e", "a", "c"}, ids(got, func(r rec) string { return r.id }))
	assert.Equal(t, "a", records[0].id, "input must not be reordered")
}
