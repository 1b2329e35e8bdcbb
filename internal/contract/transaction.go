package contract

// Intent marks what a transaction claims to do with its obligation records.
type Intent int

const (
	Issue Intent = iota
	Transfer
	Settle
)

// String returns the lowercase name used in logs and stored transactions.
func (i Intent) String() string {
	switch i {
	case Issue:
		return "issue"
	case Transfer:
		return "transfer"
	case Settle:
		return "settle"
	default:
		return "unknown"
	}
}

// Transaction is a fully materialized ledger transition proposal: the
// obligation versions it consumes, the versions it produces, its intent
// markers and the keys that authorized it. The environment should attach
// exactly one intent; the validator rejects anything else rather than
// trusting that guarantee.
type Transaction struct {
	Inputs  []Obligation
	Outputs []Obligation
	Intents []Intent
	Signers []Key
}

// signerSet collapses the signer list to set semantics.
func (t Transaction) signerSet() map[Key]struct{} {
	set := make(map[Key]struct{}, len(t.Signers))
	for _, k := range t.Signers {
		set[k] = struct{}{}
	}
	return set
}
