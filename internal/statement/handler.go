package statement

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/digitalbank/backoffice/internal/ledger"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Handler exposes balance and statement HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a statement HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type entryResponse struct {
	ID            string          `json:"id"`
	Timestamp     string          `json:"timestamp"`
	AccountNumber int64           `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	ID                       string          `json:"id"`
	Timestamp                string          `json:"timestamp"`
	SourceAccountNumber      int64           `json:"source_account_number"`
	DestinationAccountNumber int64           `json:"destination_account_number"`
	Amount                   decimal.Decimal `json:"amount"`
}

type statementResponse struct {
	AccountNumber     int64              `json:"account_number"`
	Balance           decimal.Decimal    `json:"balance"`
	Deposits          []entryResponse    `json:"deposits"`
	Withdrawals       []entryResponse    `json:"withdrawals"`
	TransfersReceived []transferResponse `json:"transfers_received"`
	TransfersSent     []transferResponse `json:"transfers_sent"`
}

// Balance returns the current balance of the account in the query string.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Query("account_number"), c.Query("password"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_number": balance.AccountNumber,
		"balance":        balance.Balance,
	})
}

// Statement returns the four ordered histories of the account.
func (h *Handler) Statement(c *fiber.Ctx) error {
	st, err := h.service.Statement(c.UserContext(), c.Query("account_number"), c.Query("password"))
	if err != nil {
		return err
	}

	resp := statementResponse{
		AccountNumber:     st.AccountNumber,
		Balance:           st.Balance,
		Deposits:          make([]entryResponse, 0, len(st.Deposits)),
		Withdrawals:       make([]entryResponse, 0, len(st.Withdrawals)),
		TransfersReceived: make([]transferResponse, 0, len(st.TransfersReceived)),
		TransfersSent:     make([]transferResponse, 0, len(st.TransfersSent)),
	}
	for _, d := range st.Deposits {
		resp.Deposits = append(resp.Deposits, entryResponse{ID: d.ID, Timestamp: d.Timestamp.Format(timeLayout), AccountNumber: d.AccountNumber, Amount: d.Amount})
	}
	for _, w := range st.Withdrawals {
		resp.Withdrawals = append(resp.Withdrawals, entryResponse{ID: w.ID, Timestamp: w.Timestamp.Format(timeLayout), AccountNumber: w.AccountNumber, Amount: w.Amount})
	}
	for _, t := range st.TransfersReceived {
		resp.TransfersReceived = append(resp.TransfersReceived, toTransferResponse(t))
	}
	for _, t := range st.TransfersSent {
		resp.TransfersSent = append(resp.TransfersSent, toTransferResponse(t))
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func toTransferResponse(t ledger.Transfer) transferResponse {
	return transferResponse{
		ID:                       t.ID,
		Timestamp:                t.Timestamp.Format(timeLayout),
		SourceAccountNumber:      t.SourceAccountNumber,
		DestinationAccountNumber: t.DestinationAccountNumber,
		Amount:                   t.Amount,
	}
}
