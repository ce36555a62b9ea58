package transaction

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/digitalbank/backoffice/internal/ledger"
)

// Handler exposes transaction HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transaction handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	AccountNumber json.Number     `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type withdrawRequest struct {
	AccountNumber json.Number     `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Password      string          `json:"password"`
}

type transferRequest struct {
	SourceAccountNumber      json.Number     `json:"source_account_number"`
	DestinationAccountNumber json.Number     `json:"destination_account_number"`
	Amount                   decimal.Decimal `json:"amount"`
	Password                 string          `json:"password"`
}

type receiptResponse struct {
	Message       string          `json:"message"`
	RecordID      string          `json:"record_id"`
	AccountNumber int64           `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CompletedAt   string          `json:"completed_at"`
}

func toReceiptResponse(message string, r Receipt) receiptResponse {
	return receiptResponse{
		Message:       message,
		RecordID:      r.RecordID,
		AccountNumber: r.AccountNumber,
		Balance:       r.Balance,
		CompletedAt:   r.CompletedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func malformedBody(err error) error {
	return ledger.Invalid("malformed request body: " + err.Error())
}

// Deposit credits an account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(err)
	}
	receipt, err := h.service.Deposit(c.UserContext(), DepositInput{
		AccountNumber: req.AccountNumber.String(),
		Amount:        req.Amount,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toReceiptResponse("deposit completed", receipt))
}

// Withdraw debits an account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(err)
	}
	receipt, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		AccountNumber: req.AccountNumber.String(),
		Amount:        req.Amount,
		Password:      req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toReceiptResponse("withdrawal completed", receipt))
}

// Transfer moves funds between two accounts.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(err)
	}
	receipt, err := h.service.Transfer(c.UserContext(), TransferInput{
		SourceAccountNumber:      req.SourceAccountNumber.String(),
		DestinationAccountNumber: req.DestinationAccountNumber.String(),
		Amount:                   req.Amount,
		Password:                 req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":                    "transfer completed",
		"record_id":                  receipt.RecordID,
		"source_account_number":      receipt.SourceAccountNumber,
		"destination_account_number": receipt.DestinationAccountNumber,
		"source_balance":             receipt.SourceBalance,
		"destination_balance":        receipt.DestinationBalance,
		"completed_at":               receipt.CompletedAt.Format(timeLayout),
	})
}
