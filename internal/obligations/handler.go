package obligations

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/contract"
	"github.com/obligo/obligo/internal/registry"
	"github.com/obligo/obligo/internal/vault"
)

// Handler exposes obligation endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an obligation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type issueRequest struct {
	LenderKey   string   `json:"lender_key"`
	BorrowerKey string   `json:"borrower_key"`
	Amount      int64    `json:"amount"`
	Signers     []string `json:"signers"`
	ClientTxID  string   `json:"client_tx_id"`
}

type transferRequest struct {
	NewLenderKey string   `json:"new_lender_key"`
	Signers      []string `json:"signers"`
	ClientTxID   string   `json:"client_tx_id"`
}

type settleRequest struct {
	Amount     int64    `json:"amount"`
	Signers    []string `json:"signers"`
	ClientTxID string   `json:"client_tx_id"`
}

type partyRef struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type stateResponse struct {
	LinearID    string    `json:"linear_id"`
	Version     int       `json:"version"`
	Amount      int64     `json:"amount"`
	Paid        int64     `json:"paid"`
	Outstanding int64     `json:"outstanding"`
	Lender      partyRef  `json:"lender"`
	Borrower    partyRef  `json:"borrower"`
	Status      string    `json:"status"`
	TxID        string    `json:"transaction_id"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type transitionResponse struct {
	TransactionID string         `json:"transaction_id"`
	Retired       bool           `json:"retired"`
	State         *stateResponse `json:"state,omitempty"`
	CompletedAt   time.Time      `json:"completed_at"`
}

// Issue creates a new obligation.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Issue(c.UserContext(), IssueInput{
		LenderKey:   req.LenderKey,
		BorrowerKey: req.BorrowerKey,
		Amount:      req.Amount,
		Signers:     req.Signers,
		ClientTxID:  req.ClientTxID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toTransitionResponse(res))
}

// Transfer reassigns the lender of an obligation.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	linearID, err := uuid.Parse(c.Params("linearId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid linear id")
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		LinearID:     linearID,
		NewLenderKey: req.NewLenderKey,
		Signers:      req.Signers,
		ClientTxID:   req.ClientTxID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toTransitionResponse(res))
}

// Settle applies a payment to an obligation.
func (h *Handler) Settle(c *fiber.Ctx) error {
	linearID, err := uuid.Parse(c.Params("linearId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid linear id")
	}
	var req settleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Settle(c.UserContext(), SettleInput{
		LinearID:   linearID,
		Amount:     req.Amount,
		Signers:    req.Signers,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toTransitionResponse(res))
}

// Get returns the live head of an obligation.
func (h *Handler) Get(c *fiber.Ctx) error {
	linearID, err := uuid.Parse(c.Params("linearId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid linear id")
	}
	rec, err := h.service.Get(c.UserContext(), linearID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toStateResponse(rec))
}

// History returns all recorded versions of an obligation.
func (h *Handler) History(c *fiber.Ctx) error {
	linearID, err := uuid.Parse(c.Params("linearId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid linear id")
	}
	records, err := h.service.History(c.UserContext(), linearID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]stateResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toStateResponse(rec))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"linear_id": linearID.String(), "versions": out})
}

// List returns all live obligations.
func (h *Handler) List(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]stateResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toStateResponse(rec))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"obligations": out})
}

// respondError maps domain failures to HTTP statuses. Contract violations
// carry their stable kind and the audit rule text through to the client.
func respondError(c *fiber.Ctx, err error) error {
	var violation *contract.Violation
	switch {
	case errors.As(err, &violation):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "transaction rejected",
			"kind":  violation.Kind,
			"rule":  violation.Rule,
		})
	case errors.Is(err, vault.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "obligation not found")
	case errors.Is(err, registry.ErrPartyNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, vault.ErrConsumed):
		return fiber.NewError(http.StatusConflict, "obligation already consumed")
	case errors.Is(err, vault.ErrDuplicateTransaction):
		return fiber.NewError(http.StatusConflict, "duplicate transaction")
	case errors.Is(err, vault.ErrExists):
		return fiber.NewError(http.StatusConflict, "obligation already exists")
	case errors.Is(err, ErrPaymentExceedsBalance):
		return fiber.NewError(http.StatusBadRequest, "payment exceeds outstanding balance")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

func toStateResponse(rec vault.StateRecord) stateResponse {
	return stateResponse{
		LinearID:    rec.LinearID.String(),
		Version:     rec.Version,
		Amount:      rec.State.Amount,
		Paid:        rec.State.Paid,
		Outstanding: rec.State.Outstanding(),
		Lender:      partyRef{Name: rec.State.Lender.Name, Key: string(rec.State.Lender.Key)},
		Borrower:    partyRef{Name: rec.State.Borrower.Name, Key: string(rec.State.Borrower.Key)},
		Status:      rec.Status,
		TxID:        rec.TxID,
		RecordedAt:  rec.RecordedAt,
	}
}

func toTransitionResponse(res Result) transitionResponse {
	out := transitionResponse{
		TransactionID: res.TxID,
		Retired:       res.Record == nil,
		CompletedAt:   res.CompletedAt,
	}
	if res.Record != nil {
		state := toStateResponse(*res.Record)
		out.State = &state
	}
	return out
}
