package contract

// Key is an opaque identity token for a party. Signature verification happens
// in the environment before a transaction reaches the validator; here keys
// are only compared for equality.
type Key string

// Party identifies one side of an obligation by its owning key.
type Party struct {
	Name string
	Key  Key
}

// Is reports whether both parties share the same owning key. All identity
// comparisons in the contract go through owning keys, never struct equality.
func (p Party) Is(other Party) bool {
	return p.Key == other.Key
}
