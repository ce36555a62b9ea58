package account

import (
	"context"
	"strings"
	"time"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/validation"
)

// Service manages the account lifecycle: open, list, update owner data, close.
type Service struct {
	store      ledger.Store
	bcryptCost int
	now        func() time.Time
}

// NewService constructs an account service. A zero bcryptCost uses the bcrypt
// default.
func NewService(store ledger.Store, bcryptCost int) *Service {
	return &Service{store: store, bcryptCost: bcryptCost, now: time.Now}
}

// List returns every account ordered by number.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	var accounts []ledger.Account
	err := s.store.View(ctx, func(r ledger.Reader) error {
		var err error
		accounts, err = r.Accounts(ctx)
		return err
	})
	return accounts, err
}

// Create opens an account with a zero balance and the next free number.
func (s *Service) Create(ctx context.Context, fields validation.OwnerFields) (ledger.Account, error) {
	fields, err := validation.Owner(fields)
	if err != nil {
		return ledger.Account{}, err
	}
	hash, err := validation.HashPassword(fields.Password, s.bcryptCost)
	if err != nil {
		return ledger.Account{}, err
	}

	var account ledger.Account
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		if err := checkUnique(ctx, tx, 0, fields); err != nil {
			return err
		}
		number, err := tx.NextAccountNumber(ctx)
		if err != nil {
			return err
		}
		account = ledger.Account{
			Number:    number,
			Owner:     toOwner(fields, hash),
			CreatedAt: s.now().UTC(),
		}
		return tx.PutAccount(ctx, account)
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// UpdateOwner replaces the owner data of an existing account. The balance is
// left untouched.
func (s *Service) UpdateOwner(ctx context.Context, accountNumber string, fields validation.OwnerFields) (ledger.Account, error) {
	fields, err := validation.Owner(fields)
	if err != nil {
		return ledger.Account{}, err
	}
	hash, err := validation.HashPassword(fields.Password, s.bcryptCost)
	if err != nil {
		return ledger.Account{}, err
	}

	var account ledger.Account
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		current, err := validation.AccountReference(ctx, tx, accountNumber)
		if err != nil {
			return err
		}
		if err := checkUnique(ctx, tx, current.Number, fields); err != nil {
			return err
		}
		current.Owner = toOwner(fields, hash)
		account = current
		return tx.PutAccount(ctx, current)
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// Delete closes an account. Only accounts with a zero balance can be closed;
// their ledger history is kept.
func (s *Service) Delete(ctx context.Context, accountNumber string) error {
	return s.store.Update(ctx, func(tx ledger.Tx) error {
		account, err := validation.AccountReference(ctx, tx, accountNumber)
		if err != nil {
			return err
		}
		if !account.Balance.IsZero() {
			return ledger.Invalid("account balance must be zero before it can be deleted")
		}
		return tx.DeleteAccount(ctx, account.Number)
	})
}

// checkUnique fails with ErrConflict when another account already uses the
// national id or e-mail. except is the number of the account being updated.
func checkUnique(ctx context.Context, r ledger.Reader, except int64, fields validation.OwnerFields) error {
	accounts, err := r.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.Number == except {
			continue
		}
		if a.Owner.NationalID == fields.NationalID {
			return conflict("national_id")
		}
		if strings.EqualFold(a.Owner.Email, fields.Email) {
			return conflict("email")
		}
	}
	return nil
}

func conflict(field string) error {
	return &conflictError{field: field}
}

type conflictError struct {
	field string
}

func (e *conflictError) Error() string { return e.field + " is already registered" }

func (e *conflictError) Unwrap() error { return ledger.ErrConflict }

func toOwner(fields validation.OwnerFields, hash string) ledger.Owner {
	return ledger.Owner{
		Name:         fields.Name,
		NationalID:   fields.NationalID,
		BirthDate:    fields.BirthDate,
		Phone:        fields.Phone,
		Email:        fields.Email,
		PasswordHash: hash,
	}
}
