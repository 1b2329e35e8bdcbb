package obligations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/contract"
	"github.com/obligo/obligo/internal/events"
	"github.com/obligo/obligo/internal/registry"
	"github.com/obligo/obligo/internal/vault"
)

// ErrPaymentExceedsBalance indicates a settlement payment larger than the
// outstanding balance of the obligation.
var ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")

// Service orchestrates obligation transitions: it builds transaction
// descriptors from vault state, runs them through the contract and records
// accepted transactions. The contract decides legality; the service only
// assembles honest descriptors.
type Service struct {
	contractID string
	vault      vault.Vault
	registry   *registry.Service
	publisher  events.Publisher
}

// NewService constructs an obligation service bound to a contract identifier.
func NewService(contractID string, v vault.Vault, reg *registry.Service, publisher events.Publisher) *Service {
	return &Service{contractID: contractID, vault: v, registry: reg, publisher: publisher}
}

// Result describes a committed transition. Record is nil when the obligation
// was retired.
type Result struct {
	TxID        string
	Record      *vault.StateRecord
	CompletedAt time.Time
}

// IssueInput captures the data needed to issue a new obligation.
type IssueInput struct {
	LenderKey   string
	BorrowerKey string
	Amount      int64
	Signers     []string
	ClientTxID  string
}

// Issue records a new obligation between two registered parties.
func (s *Service) Issue(ctx context.Context, input IssueInput) (Result, error) {
	lender, err := s.registry.Lookup(ctx, input.LenderKey)
	if err != nil {
		return Result{}, fmt.Errorf("lender: %w", err)
	}
	borrower, err := s.registry.Lookup(ctx, input.BorrowerKey)
	if err != nil {
		return Result{}, fmt.Errorf("borrower: %w", err)
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	state := contract.Obligation{
		Amount:   input.Amount,
		Lender:   lender.Contract(),
		Borrower: borrower.Contract(),
		Paid:     0,
		LinearID: uuid.New(),
	}

	tx := contract.Transaction{
		Outputs: []contract.Obligation{state},
		Intents: []contract.Intent{contract.Issue},
		Signers: toKeys(input.Signers),
	}
	if err := contract.Verify(tx); err != nil {
		return Result{}, err
	}

	res, err := s.vault.Append(ctx, vault.AcceptedTransaction{
		ClientTxID: input.ClientTxID,
		ContractID: s.contractID,
		Intent:     contract.Issue,
		Outputs:    tx.Outputs,
	})
	if err != nil {
		return Result{}, err
	}

	head := res.Heads[0]
	s.publish(ctx, events.KindIssued, res.TxID, head.State)
	return Result{TxID: res.TxID, Record: &head, CompletedAt: time.Now().UTC()}, nil
}

// TransferInput captures the data needed to reassign the lender.
type TransferInput struct {
	LinearID     uuid.UUID
	NewLenderKey string
	Signers      []string
	ClientTxID   string
}

// Transfer reassigns the obligation to a new lender.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Result, error) {
	head, err := s.vault.Head(ctx, input.LinearID)
	if err != nil {
		return Result{}, err
	}
	newLender, err := s.registry.Lookup(ctx, input.NewLenderKey)
	if err != nil {
		return Result{}, fmt.Errorf("new lender: %w", err)
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	out := head.State
	out.Lender = newLender.Contract()

	tx := contract.Transaction{
		Inputs:  []contract.Obligation{head.State},
		Outputs: []contract.Obligation{out},
		Intents: []contract.Intent{contract.Transfer},
		Signers: toKeys(input.Signers),
	}
	if err := contract.Verify(tx); err != nil {
		return Result{}, err
	}

	res, err := s.vault.Append(ctx, vault.AcceptedTransaction{
		ClientTxID: input.ClientTxID,
		ContractID: s.contractID,
		Intent:     contract.Transfer,
		Consumes:   []uuid.UUID{input.LinearID},
		Outputs:    tx.Outputs,
	})
	if err != nil {
		return Result{}, err
	}

	newHead := res.Heads[0]
	s.publish(ctx, events.KindTransferred, res.TxID, newHead.State)
	return Result{TxID: res.TxID, Record: &newHead, CompletedAt: time.Now().UTC()}, nil
}

// SettleInput captures a settlement payment against an obligation.
type SettleInput struct {
	LinearID   uuid.UUID
	Amount     int64
	Signers    []string
	ClientTxID string
}

// Settle applies a payment. A payment short of the outstanding balance
// produces a successor version with an increased paid amount; a payment that
// clears the balance retires the obligation with no successor. The contract
// accepts any zero-output settle, so deciding when retirement is appropriate
// happens here, not in the validator.
func (s *Service) Settle(ctx context.Context, input SettleInput) (Result, error) {
	head, err := s.vault.Head(ctx, input.LinearID)
	if err != nil {
		return Result{}, err
	}
	if input.Amount <= 0 {
		return Result{}, fmt.Errorf("payment must be positive")
	}
	outstanding := head.State.Outstanding()
	if input.Amount > outstanding {
		return Result{}, ErrPaymentExceedsBalance
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	var outputs []contract.Obligation
	kind := events.KindRetired
	if input.Amount < outstanding {
		out := head.State
		out.Paid += input.Amount
		outputs = []contract.Obligation{out}
		kind = events.KindSettled
	}

	tx := contract.Transaction{
		Inputs:  []contract.Obligation{head.State},
		Outputs: outputs,
		Intents: []contract.Intent{contract.Settle},
		Signers: toKeys(input.Signers),
	}
	if err := contract.Verify(tx); err != nil {
		return Result{}, err
	}

	res, err := s.vault.Append(ctx, vault.AcceptedTransaction{
		ClientTxID: input.ClientTxID,
		ContractID: s.contractID,
		Intent:     contract.Settle,
		Consumes:   []uuid.UUID{input.LinearID},
		Outputs:    outputs,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{TxID: res.TxID, CompletedAt: time.Now().UTC()}
	state := head.State
	state.Paid += input.Amount
	if len(res.Heads) == 1 {
		result.Record = &res.Heads[0]
		state = res.Heads[0].State
	}
	s.publish(ctx, kind, res.TxID, state)
	return result, nil
}

// Get returns the live head for an obligation.
func (s *Service) Get(ctx context.Context, linearID uuid.UUID) (vault.StateRecord, error) {
	return s.vault.Head(ctx, linearID)
}

// History returns every recorded version for an obligation.
func (s *Service) History(ctx context.Context, linearID uuid.UUID) ([]vault.StateRecord, error) {
	return s.vault.History(ctx, linearID)
}

// List returns all live obligations.
func (s *Service) List(ctx context.Context) ([]vault.StateRecord, error) {
	return s.vault.List(ctx)
}

func (s *Service) publish(ctx context.Context, kind, txID string, state contract.Obligation) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.Event{
		Kind:        kind,
		TxID:        txID,
		LinearID:    state.LinearID.String(),
		Amount:      state.Amount,
		Paid:        state.Paid,
		LenderKey:   string(state.Lender.Key),
		BorrowerKey: string(state.Borrower.Key),
		OccurredAt:  time.Now().UTC(),
	})
}

func toKeys(signers []string) []contract.Key {
	keys := make([]contract.Key, 0, len(signers))
	for _, s := range signers {
		keys = append(keys, contract.Key(s))
	}
	return keys
}
