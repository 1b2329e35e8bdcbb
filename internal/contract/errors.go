package contract

// Kind is the stable machine-readable classification of a violated rule.
// Collaborators branch on the kind; the rule text is for operators and
// auditors and may be surfaced verbatim.
type Kind string

const (
	KindMalformedIntent             Kind = "malformed_intent"
	KindUnknownIntent               Kind = "unknown_intent"
	KindWrongInputCount             Kind = "wrong_input_count"
	KindWrongOutputCount            Kind = "wrong_output_count"
	KindNonPositiveAmount           Kind = "non_positive_amount"
	KindSelfDealing                 Kind = "self_dealing"
	KindInsufficientOrExcessSigners Kind = "insufficient_or_excess_signers"
	KindIllegalFieldChange          Kind = "illegal_field_change"
	KindLenderUnchanged             Kind = "lender_unchanged"
	KindPaidDidNotIncrease          Kind = "paid_did_not_increase"
	KindOverpaymentViaOutput        Kind = "overpayment_via_output"
)

// Violation reports the first rule a transaction broke. Evaluation is
// short-circuit in the documented per-intent order, so a transaction that
// breaks several rules always reports the earliest one.
type Violation struct {
	Kind Kind
	Rule string
}

func (v *Violation) Error() string {
	return v.Rule
}

func violated(kind Kind, rule string) error {
	return &Violation{Kind: kind, Rule: rule}
}
