package contract

import "github.com/google/uuid"

// Obligation is one immutable version of an IOU: Amount owed by Borrower to
// Lender, of which Paid has been settled. LinearID threads all versions of
// the same logical obligation; a transition consumes one version and
// produces the next under the same LinearID.
type Obligation struct {
	Amount   int64
	Lender   Party
	Borrower Party
	Paid     int64
	LinearID uuid.UUID
}

// Participants returns the parties with a vested interest in the record.
func (o Obligation) Participants() []Party {
	return []Party{o.Lender, o.Borrower}
}

// Outstanding returns the unpaid remainder of the obligation.
func (o Obligation) Outstanding() int64 {
	return o.Amount - o.Paid
}
