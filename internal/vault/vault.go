package vault

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/contract"
)

var (
	// ErrNotFound indicates no live obligation exists for the requested linearId.
	ErrNotFound = errors.New("obligation not found")

	// ErrConsumed indicates the referenced obligation version was already spent
	// by an earlier transaction.
	ErrConsumed = errors.New("obligation already consumed")

	// ErrExists indicates an issue attempted to create a linearId that is
	// already threaded through the vault.
	ErrExists = errors.New("obligation already exists")

	// ErrDuplicateTransaction indicates the provided client transaction
	// identifier already exists and the operation should be treated as an
	// idempotent replay.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

// Status of a stored obligation version.
const (
	StatusLive     = "live"
	StatusConsumed = "consumed"
)

// StateRecord is one stored version of an obligation, together with its
// position in the version chain and the transaction that produced it.
type StateRecord struct {
	ID         uuid.UUID
	LinearID   uuid.UUID
	Version    int
	State      contract.Obligation
	Status     string
	TxID       string
	RecordedAt time.Time
}

// AcceptedTransaction is a contract-verified transition ready to be made
// durable. Consumes lists the linearIds whose live heads the transaction
// spends; Outputs carries the successor versions (none when an obligation is
// retired).
type AcceptedTransaction struct {
	ClientTxID string
	ContractID string
	Intent     contract.Intent
	Consumes   []uuid.UUID
	Outputs    []contract.Obligation
}

// AppendResult captures the outcome of recording a transaction.
type AppendResult struct {
	TxID  string
	Heads []StateRecord
}

// Vault defines the contract implemented by obligation stores (e.g. Postgres).
type Vault interface {
	Head(ctx context.Context, linearID uuid.UUID) (StateRecord, error)
	History(ctx context.Context, linearID uuid.UUID) ([]StateRecord, error)
	List(ctx context.Context) ([]StateRecord, error)
	Append(ctx context.Context, tx AcceptedTransaction) (AppendResult, error)
}
