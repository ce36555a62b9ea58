package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner holds the personal data of an account holder.
type Owner struct {
	Name         string `json:"name"`
	NationalID   string `json:"national_id"`
	BirthDate    string `json:"birth_date"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// Account is a row of the authoritative balance table.
type Account struct {
	Number    int64           `json:"number"`
	Balance   decimal.Decimal `json:"balance"`
	Owner     Owner           `json:"owner"`
	CreatedAt time.Time       `json:"created_at"`
}

// Deposit is an immutable deposit ledger entry.
type Deposit struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	AccountNumber int64           `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// Withdrawal is an immutable withdrawal ledger entry.
type Withdrawal struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	AccountNumber int64           `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// Transfer is an immutable transfer ledger entry between two accounts.
type Transfer struct {
	ID                       string          `json:"id"`
	Timestamp                time.Time       `json:"timestamp"`
	SourceAccountNumber      int64           `json:"source_account_number"`
	DestinationAccountNumber int64           `json:"destination_account_number"`
	Amount                   decimal.Decimal `json:"amount"`
}
