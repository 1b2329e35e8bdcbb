// Package contract implements the obligation transition validator: a pure
// decision function that accepts or rejects a proposed ledger transaction
// over obligation records. It performs no I/O and keeps no state; the
// surrounding service resolves records and authenticates signers before
// calling Verify.
package contract

// ContractID identifies this contract to the host platform. It is passed to
// the flow layer at construction and stamped on recorded transactions.
const ContractID = "obligo.ObligationContract"

// Rule texts surfaced to operators and auditors on rejection. Collaborators
// may display these verbatim, so they are fixed strings rather than
// formatted messages.
const (
	ruleSingleIntent = "A transaction must carry exactly one intent."
	ruleKnownIntent  = "Unrecognised transaction intent."

	ruleIssueNoInputs       = "No inputs should be consumed when issuing an obligation."
	ruleIssueOneOutput      = "Only one output should be created when issuing an obligation."
	ruleIssuePositiveAmount = "A newly issued obligation must have a positive amount."
	ruleIssueDistinctSides  = "The lender and borrower cannot have the same identity."
	ruleIssueSigners        = "Both lender and borrower together only may sign an obligation issue transaction."

	ruleTransferOneInput    = "An obligation transfer transaction should only consume one input."
	ruleTransferOneOutput   = "An obligation transfer transaction should only create one output."
	ruleTransferOnlyLender  = "Only the lender property may change in a transfer."
	ruleTransferLenderMoves = "The lender property must change in a transfer."
	ruleTransferSigners     = "The borrower, old lender and new lender only must sign an obligation transfer transaction."

	ruleSettleOneInput     = "One input should be consumed when settling an obligation."
	ruleSettleMaxOneOutput = "No more than one output should be created when settling an obligation."
	ruleSettleOnlyPaid     = "Only the paid amount can change during part settlement."
	ruleSettlePaidGrows    = "The paid amount must increase in case of part settlement of the obligation."
	ruleSettlePaidBounded  = "The paid amount must be less than the total amount of the obligation."
	ruleSettleSigners      = "Both lender and borrower must sign an obligation settle transaction."
)

// Verify decides whether tx is a legal obligation transition. It routes on
// the transaction's single intent and applies that intent's rules in a fixed
// order, returning nil on success or a *Violation for the first broken rule.
func Verify(tx Transaction) error {
	if len(tx.Intents) != 1 {
		return violated(KindMalformedIntent, ruleSingleIntent)
	}
	switch tx.Intents[0] {
	case Issue:
		return verifyIssue(tx)
	case Transfer:
		return verifyTransfer(tx)
	case Settle:
		return verifySettle(tx)
	default:
		return violated(KindUnknownIntent, ruleKnownIntent)
	}
}

func verifyIssue(tx Transaction) error {
	if len(tx.Inputs) != 0 {
		return violated(KindWrongInputCount, ruleIssueNoInputs)
	}
	if len(tx.Outputs) != 1 {
		return violated(KindWrongOutputCount, ruleIssueOneOutput)
	}
	out := tx.Outputs[0]
	if out.Amount <= 0 {
		return violated(KindNonPositiveAmount, ruleIssuePositiveAmount)
	}
	if out.Lender.Is(out.Borrower) {
		return violated(KindSelfDealing, ruleIssueDistinctSides)
	}

	signers := tx.signerSet()
	participants := keysOf(out.Participants()...)
	if !containsAll(signers, participants) || len(signers) != 2 {
		return violated(KindInsufficientOrExcessSigners, ruleIssueSigners)
	}
	return nil
}

func verifyTransfer(tx Transaction) error {
	if len(tx.Inputs) != 1 {
		return violated(KindWrongInputCount, ruleTransferOneInput)
	}
	if len(tx.Outputs) != 1 {
		return violated(KindWrongOutputCount, ruleTransferOneOutput)
	}
	in, out := tx.Inputs[0], tx.Outputs[0]

	if out.Amount != in.Amount || out.LinearID != in.LinearID ||
		!out.Borrower.Is(in.Borrower) || out.Paid != in.Paid {
		return violated(KindIllegalFieldChange, ruleTransferOnlyLender)
	}
	if out.Lender.Is(in.Lender) {
		return violated(KindLenderUnchanged, ruleTransferLenderMoves)
	}

	// Old lender, borrower and new lender must be three distinct keys; a
	// "new" lender who coincides with either participant shrinks the set
	// and fails the cardinality check.
	required := keysOf(in.Borrower, in.Lender, out.Lender)
	signers := tx.signerSet()
	if !equalKeySets(signers, required) || len(required) != 3 {
		return violated(KindInsufficientOrExcessSigners, ruleTransferSigners)
	}
	return nil
}

func verifySettle(tx Transaction) error {
	if len(tx.Inputs) != 1 {
		return violated(KindWrongInputCount, ruleSettleOneInput)
	}
	if len(tx.Outputs) > 1 {
		return violated(KindWrongOutputCount, ruleSettleMaxOneOutput)
	}
	in := tx.Inputs[0]

	if len(tx.Outputs) == 1 {
		out := tx.Outputs[0]
		if out.Amount != in.Amount || out.LinearID != in.LinearID ||
			!out.Borrower.Is(in.Borrower) || !out.Lender.Is(in.Lender) {
			return violated(KindIllegalFieldChange, ruleSettleOnlyPaid)
		}
		if out.Paid <= in.Paid {
			return violated(KindPaidDidNotIncrease, ruleSettlePaidGrows)
		}
		if out.Paid >= in.Amount {
			return violated(KindOverpaymentViaOutput, ruleSettlePaidBounded)
		}
	}
	// Zero outputs retire the obligation. Note the contract does not check
	// that paid reached the full amount here; choosing the zero-output form
	// only for a fully discharged obligation is the flow layer's call.

	required := keysOf(in.Participants()...)
	signers := tx.signerSet()
	if !equalKeySets(signers, required) {
		return violated(KindInsufficientOrExcessSigners, ruleSettleSigners)
	}
	return nil
}

func keysOf(parties ...Party) map[Key]struct{} {
	set := make(map[Key]struct{}, len(parties))
	for _, p := range parties {
		set[p.Key] = struct{}{}
	}
	return set
}

func containsAll(set, subset map[Key]struct{}) bool {
	for k := range subset {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

func equalKeySets(a, b map[Key]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	return containsAll(a, b)
}
