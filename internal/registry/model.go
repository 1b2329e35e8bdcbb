package registry

import (
	"time"

	"github.com/obligo/obligo/internal/contract"
)

// Party is a registered ledger participant. Key is the opaque owning key the
// contract compares identities by; SecretHash guards registration lookups,
// it is not a signing key.
type Party struct {
	ID         string
	Name       string
	Key        string
	SecretHash []byte
	CreatedAt  time.Time
}

// Contract converts the stored party into the identity token the validator
// works with.
func (p Party) Contract() contract.Party {
	return contract.Party{Name: p.Name, Key: contract.Key(p.Key)}
}
