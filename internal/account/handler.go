package account

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/digitalbank/backoffice/internal/ledger"
	"github.com/digitalbank/backoffice/internal/validation"
)

// Handler exposes account lifecycle HTTP endpoints.
type Handler struct {
	service      *Service
	bankPassword string
}

// NewHandler builds an account HTTP handler. bankPassword guards the account
// listing; when empty the listing is always refused.
func NewHandler(service *Service, bankPassword string) *Handler {
	return &Handler{service: service, bankPassword: bankPassword}
}

type ownerRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r ownerRequest) fields() validation.OwnerFields {
	return validation.OwnerFields{
		Name:       r.Name,
		NationalID: r.NationalID,
		BirthDate:  r.BirthDate,
		Phone:      r.Phone,
		Email:      r.Email,
		Password:   r.Password,
	}
}

type ownerResponse struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type accountResponse struct {
	Number    int64           `json:"account_number"`
	Balance   decimal.Decimal `json:"balance"`
	Owner     ownerResponse   `json:"owner"`
	CreatedAt string          `json:"created_at,omitempty"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	resp := accountResponse{
		Number:  a.Number,
		Balance: a.Balance,
		Owner: ownerResponse{
			Name:       a.Owner.Name,
			NationalID: a.Owner.NationalID,
			BirthDate:  a.Owner.BirthDate,
			Phone:      a.Owner.Phone,
			Email:      a.Owner.Email,
		},
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// List returns every account when the bank password matches.
func (h *Handler) List(c *fiber.Ctx) error {
	supplied := c.Query("bank_password")
	if h.bankPassword == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(h.bankPassword)) != 1 {
		return ledger.ErrUnauthorized
	}
	accounts, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req ownerRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.Invalid("malformed request body: " + err.Error())
	}
	account, err := h.service.Create(c.UserContext(), req.fields())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(account))
}

// UpdateOwner replaces the owner data of the account in the path.
func (h *Handler) UpdateOwner(c *fiber.Ctx) error {
	var req ownerRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.Invalid("malformed request body: " + err.Error())
	}
	account, err := h.service.UpdateOwner(c.UserContext(), c.Params("number"), req.fields())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(account))
}

// Delete closes the account in the path.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("number")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
