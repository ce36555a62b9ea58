// Package validation holds the side-effect-free checks run before any balance
// is touched. Every failure is one of the ledger error sentinels.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/digitalbank/backoffice/internal/ledger"
)

// AccountFinder looks an account up by number. ledger.Reader and ledger.Tx
// both satisfy it.
type AccountFinder interface {
	Account(ctx context.Context, number int64) (ledger.Account, error)
}

// ParseAccountNumber converts a raw account reference into a number.
func ParseAccountNumber(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ledger.Invalid("account number is required")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, ledger.Invalid("account number is not a valid number")
	}
	return n, nil
}

// AccountReference resolves raw to an existing account.
func AccountReference(ctx context.Context, finder AccountFinder, raw string) (ledger.Account, error) {
	number, err := ParseAccountNumber(raw)
	if err != nil {
		return ledger.Account{}, err
	}
	account, err := finder.Account(ctx, number)
	if errors.Is(err, ledger.ErrNotFound) {
		return ledger.Account{}, fmt.Errorf("%w: no account with number %d", ledger.ErrNotFound, number)
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// Amount rejects zero and negative transaction values.
func Amount(amount decimal.Decimal) error {
	switch {
	case amount.IsZero():
		return ledger.Invalid("amount is required")
	case amount.IsNegative():
		return ledger.Invalid("amount must be positive")
	}
	return nil
}

// Password compares the supplied password with the account's bcrypt hash in
// constant time.
func Password(account ledger.Account, supplied string) error {
	if supplied == "" || account.Owner.PasswordHash == "" {
		return ledger.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Owner.PasswordHash), []byte(supplied)); err != nil {
		return ledger.ErrUnauthorized
	}
	return nil
}

// SufficientFunds fails when the account balance cannot cover amount.
func SufficientFunds(account ledger.Account, amount decimal.Decimal) error {
	if account.Balance.LessThan(amount) {
		return fmt.Errorf("%w: account %d", ledger.ErrInsufficientFunds, account.Number)
	}
	return nil
}

// HashPassword returns the bcrypt hash stored for a new or updated owner.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// OwnerFields are the account holder fields supplied on creation or update.
type OwnerFields struct {
	Name       string `json:"name" validate:"required"`
	NationalID string `json:"national_id" validate:"required"`
	BirthDate  string `json:"birth_date" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Owner trims every field and reports the first one left blank.
func Owner(fields OwnerFields) (OwnerFields, error) {
	trimmed := OwnerFields{
		Name:       strings.TrimSpace(fields.Name),
		NationalID: strings.TrimSpace(fields.NationalID),
		BirthDate:  strings.TrimSpace(fields.BirthDate),
		Phone:      strings.TrimSpace(fields.Phone),
		Email:      strings.TrimSpace(fields.Email),
		Password:   strings.TrimSpace(fields.Password),
	}
	if err := validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return OwnerFields{}, ledger.Invalid(fieldErrs[0].Field() + " is required")
		}
		return OwnerFields{}, ledger.Invalid(err.Error())
	}
	return trimmed, nil
}
