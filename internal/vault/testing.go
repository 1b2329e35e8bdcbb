package vault

import (
	"time"

	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/contract"
)

// SeedState is a test helper that installs a live obligation version when
// using the in-memory vault.
func SeedState(v Vault, state contract.Obligation) {
	if mem, ok := v.(*inMemoryVault); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.chains[state.LinearID] = append(mem.chains[state.LinearID], StateRecord{
			ID:         uuid.New(),
			LinearID:   state.LinearID,
			Version:    len(mem.chains[state.LinearID]) + 1,
			State:      state,
			Status:     StatusLive,
			TxID:       uuid.NewString(),
			RecordedAt: time.Now().UTC(),
		})
	}
}
