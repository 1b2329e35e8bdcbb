package vault

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryVault struct {
	mu           sync.RWMutex
	chains       map[uuid.UUID][]StateRecord
	transactions map[string]AppendResult
}

// NewInMemory creates a concurrency-safe in-memory vault useful for unit
// tests and dev mode.
func NewInMemory() Vault {
	return &inMemoryVault{
		chains:       make(map[uuid.UUID][]StateRecord),
		transactions: make(map[string]AppendResult),
	}
}

func (v *inMemoryVault) Head(_ context.Context, linearID uuid.UUID) (StateRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.headLocked(linearID)
}

func (v *inMemoryVault) headLocked(linearID uuid.UUID) (StateRecord, error) {
	chain, ok := v.chains[linearID]
	if !ok || len(chain) == 0 {
		return StateRecord{}, ErrNotFound
	}
	head := chain[len(chain)-1]
	if head.Status != StatusLive {
		return StateRecord{}, ErrConsumed
	}
	return head, nil
}

func (v *inMemoryVault) History(_ context.Context, linearID uuid.UUID) ([]StateRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	chain, ok := v.chains[linearID]
	if !ok || len(chain) == 0 {
		return nil, ErrNotFound
	}
	out := make([]StateRecord, len(chain))
	copy(out, chain)
	return out, nil
}

func (v *inMemoryVault) List(_ context.Context) ([]StateRecord, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var live []StateRecord
	for _, chain := range v.chains {
		head := chain[len(chain)-1]
		if head.Status == StatusLive {
			live = append(live, head)
		}
	}
	return live, nil
}

func (v *inMemoryVault) Append(_ context.Context, tx AcceptedTransaction) (AppendResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if tx.ClientTxID != "" {
		if res, exists := v.transactions[tx.ClientTxID]; exists {
			return res, ErrDuplicateTransaction
		}
	}

	consumed := make(map[uuid.UUID]int, len(tx.Consumes))
	for _, linearID := range tx.Consumes {
		head, err := v.headLocked(linearID)
		if err != nil {
			return AppendResult{}, err
		}
		consumed[linearID] = head.Version
	}
	for _, out := range tx.Outputs {
		if _, spendsIt := consumed[out.LinearID]; spendsIt {
			continue
		}
		if len(v.chains[out.LinearID]) > 0 {
			return AppendResult{}, ErrExists
		}
	}

	txID := uuid.NewString()
	now := time.Now().UTC()

	for _, linearID := range tx.Consumes {
		chain := v.chains[linearID]
		chain[len(chain)-1].Status = StatusConsumed
	}

	res := AppendResult{TxID: txID}
	for _, out := range tx.Outputs {
		version := 1
		if prev, ok := consumed[out.LinearID]; ok {
			version = prev + 1
		}
		rec := StateRecord{
			ID:         uuid.New(),
			LinearID:   out.LinearID,
			Version:    version,
			State:      out,
			Status:     StatusLive,
			TxID:       txID,
			RecordedAt: now,
		}
		v.chains[out.LinearID] = append(v.chains[out.LinearID], rec)
		res.Heads = append(res.Heads, rec)
	}

	if tx.ClientTxID != "" {
		v.transactions[tx.ClientTxID] = res
	}
	return res, nil
}
