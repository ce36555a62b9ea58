package transaction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/notification"
	"github.com/digitalbank/backoffice/internal/validation"
)

// Service applies deposits, withdrawals and transfers. Each operation validates,
// mutates balances and appends its ledger record inside one store update.
type Service struct {
	store    ledger.Store
	notifier notification.Notifier
	now      func() time.Time
}

// NewService constructs a transaction service.
func NewService(store ledger.Store, notifier notification.Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// DepositInput captures the data needed to credit an account.
type DepositInput struct {
	AccountNumber string
	Amount        decimal.Decimal
}

// WithdrawInput captures the data needed to debit an account.
type WithdrawInput struct {
	AccountNumber string
	Amount        decimal.Decimal
	Password      string
}

// TransferInput captures the data needed to move funds between accounts.
type TransferInput struct {
	SourceAccountNumber      string
	DestinationAccountNumber string
	Amount                   decimal.Decimal
	Password                 string
}

// Receipt describes a committed deposit or withdrawal.
type Receipt struct {
	RecordID      string
	AccountNumber int64
	Balance       decimal.Decimal
	CompletedAt   time.Time
}

// TransferReceipt describes a committed transfer.
type TransferReceipt struct {
	RecordID                 string
	SourceAccountNumber      int64
	DestinationAccountNumber int64
	SourceBalance            decimal.Decimal
	DestinationBalance       decimal.Decimal
	CompletedAt              time.Time
}

// Deposit credits an account. No password is required.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		account, err := validation.AccountReference(ctx, tx, input.AccountNumber)
		if err != nil {
			return err
		}
		if err := validation.Amount(input.Amount); err != nil {
			return err
		}

		account.Balance = account.Balance.Add(input.Amount)
		record := ledger.Deposit{
			ID:            ulid.Make().String(),
			Timestamp:     s.now().UTC(),
			AccountNumber: account.Number,
			Amount:        input.Amount,
		}
		if err := tx.PutAccount(ctx, account); err != nil {
			return err
		}
		if err := tx.AppendDeposit(ctx, record); err != nil {
			return err
		}

		receipt = Receipt{RecordID: record.ID, AccountNumber: account.Number, Balance: account.Balance, CompletedAt: record.Timestamp}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:          notification.KindDeposit,
		AccountNumber: receipt.AccountNumber,
		Body:          fmt.Sprintf("Deposit of %s credited", input.Amount),
	})
	return receipt, nil
}

// Withdraw debits an account after checking its password and balance.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Receipt, error) {
	var receipt Receipt
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		account, err := validation.AccountReference(ctx, tx, input.AccountNumber)
		if err != nil {
			return err
		}
		if err := validation.Amount(input.Amount); err != nil {
			return err
		}
		if err := validation.Password(account, input.Password); err != nil {
			return err
		}
		if err := validation.SufficientFunds(account, input.Amount); err != nil {
			return err
		}

		account.Balance = account.Balance.Sub(input.Amount)
		record := ledger.Withdrawal{
			ID:            ulid.Make().String(),
			Timestamp:     s.now().UTC(),
			AccountNumber: account.Number,
			Amount:        input.Amount,
		}
		if err := tx.PutAccount(ctx, account); err != nil {
			return err
		}
		if err := tx.AppendWithdrawal(ctx, record); err != nil {
			return err
		}

		receipt = Receipt{RecordID: record.ID, AccountNumber: account.Number, Balance: account.Balance, CompletedAt: record.Timestamp}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:          notification.KindWithdrawal,
		AccountNumber: receipt.AccountNumber,
		Body:          fmt.Sprintf("Withdrawal of %s debited", input.Amount),
	})
	return receipt, nil
}

// Transfer debits the source and credits the destination in one commit.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferReceipt, error) {
	var receipt TransferReceipt
	err := s.store.Update(ctx, func(tx ledger.Tx) error {
		source, err := validation.AccountReference(ctx, tx, input.SourceAccountNumber)
		if err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		destination, err := validation.AccountReference(ctx, tx, input.DestinationAccountNumber)
		if err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
		if source.Number == destination.Number {
			return ledger.Invalid("source and destination accounts must differ")
		}
		if err := validation.Amount(input.Amount); err != nil {
			return err
		}
		if err := validation.Password(source, input.Password); err != nil {
			return err
		}
		if err := validation.SufficientFunds(source, input.Amount); err != nil {
			return err
		}

		source.Balance = source.Balance.Sub(input.Amount)
		destination.Balance = destination.Balance.Add(input.Amount)
		record := ledger.Transfer{
			ID:                       ulid.Make().String(),
			Timestamp:                s.now().UTC(),
			SourceAccountNumber:      source.Number,
			DestinationAccountNumber: destination.Number,
			Amount:                   input.Amount,
		}
		if err := tx.PutAccount(ctx, source); err != nil {
			return err
		}
		if err := tx.PutAccount(ctx, destination); err != nil {
			return err
		}
		if err := tx.AppendTransfer(ctx, record); err != nil {
			return err
		}

		receipt = TransferReceipt{
			RecordID:                 record.ID,
			SourceAccountNumber:      source.Number,
			DestinationAccountNumber: destination.Number,
			SourceBalance:            source.Balance,
			DestinationBalance:       destination.Balance,
			CompletedAt:              record.Timestamp,
		}
		return nil
	})
	if err != nil {
		return TransferReceipt{}, err
	}

	s.notify(ctx, notification.Message{
		Kind:          notification.KindTransferSent,
		AccountNumber: receipt.SourceAccountNumber,
		Destination:   strconv.FormatInt(receipt.DestinationAccountNumber, 10),
		Body:          fmt.Sprintf("You sent %s to account %d", input.Amount, receipt.DestinationAccountNumber),
	})
	s.notify(ctx, notification.Message{
		Kind:          notification.KindTransferReceived,
		AccountNumber: receipt.DestinationAccountNumber,
		Destination:   strconv.FormatInt(receipt.SourceAccountNumber, 10),
		Body:          fmt.Sprintf("You received %s from account %d", input.Amount, receipt.SourceAccountNumber),
	})
	return receipt, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, msg)
	}
}
