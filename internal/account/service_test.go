package account

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/validation"
)

func owner(id string) validation.OwnerFields {
	return validation.OwnerFields{
		Name:       "Ana " + id,
		NationalID: "000000000" + id,
		BirthDate:  "1991-02-03",
		Phone:      "1198888000" + id,
		Email:      "ana" + id + "@example.com",
		Password:   "pw" + id,
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), bcrypt.MinCost)
	ctx := context.Background()

	first, err := svc.Create(ctx, owner("1"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner("2"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.True(t, first.Balance.IsZero())
	assert.NotEqual(t, "pw1", first.Owner.PasswordHash)
	assert.NoError(t, validation.Password(first, "pw1"))

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(1), accounts[0].Number)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), bcrypt.MinCost)

	fields := owner("1")
	fields.Email = ""
	_, err := svc.Create(context.Background(), fields)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.Contains(t, err.Error(), "email is required")
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), bcrypt.MinCost)
	ctx := context.Background()
	_, err := svc.Create(ctx, owner("1"))
	require.NoError(t, err)

	sameID := owner("2")
	sameID.NationalID = owner("1").NationalID
	_, err = svc.Create(ctx, sameID)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Contains(t, err.Error(), "national_id")

	sameEmail := owner("3")
	sameEmail.Email = "ANA1@example.com"
	_, err = svc.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.Contains(t, err.Error(), "email")

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestUpdateOwner(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), bcrypt.MinCost)
	ctx := context.Background()
	a, err := svc.Create(ctx, owner("1"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner("2"))
	require.NoError(t, err)

	// Keeping its own national id and e-mail is not a conflict.
	same := owner("1")
	same.Phone = "11777777777"
	same.Password = "newpw"
	updated, err := svc.UpdateOwner(ctx, strconv.FormatInt(a.Number, 10), same)
	require.NoError(t, err)
	assert.Equal(t, "11777777777", updated.Owner.Phone)
	assert.NoError(t, validation.Password(updated, "newpw"))

	taken := owner("1")
	taken.Email = owner("2").Email
	_, err = svc.UpdateOwner(ctx, "1", taken)
	assert.ErrorIs(t, err, ledger.ErrConflict)

	_, err = svc.UpdateOwner(ctx, "42", owner("9"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteRequiresZeroBalance(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store, bcrypt.MinCost)
	ctx := context.Background()
	ledger.SeedAccounts(store, ledger.Account{Number: 5, Balance: decimal.NewFromInt(10)})

	err := svc.Delete(ctx, "5")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	a, err := svc.Create(ctx, owner("1"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), a.Number)
	require.NoError(t, svc.Delete(ctx, "6"))

	assert.ErrorIs(t, svc.Delete(ctx, "6"), ledger.ErrNotFound)

	// Numbers of deleted accounts are not handed out again.
	next, err := svc.Create(ctx, owner("2"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), next.Number)
}
