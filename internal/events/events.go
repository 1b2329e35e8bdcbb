package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindIssued indicates a new obligation was recorded.
	KindIssued = "obligation_issued"
	// KindTransferred indicates the lender changed.
	KindTransferred = "obligation_transferred"
	// KindSettled indicates a partial settlement was recorded.
	KindSettled = "obligation_settled"
	// KindRetired indicates the obligation was fully settled and consumed.
	KindRetired = "obligation_retired"
)

// Event describes a committed obligation transaction.
type Event struct {
	Kind        string    `json:"kind"`
	TxID        string    `json:"transaction_id"`
	LinearID    string    `json:"linear_id"`
	Amount      int64     `json:"amount"`
	Paid        int64     `json:"paid"`
	LenderKey   string    `json:"lender_key"`
	BorrowerKey string    `json:"borrower_key"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher delivers committed-transaction events to downstream systems.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LoggerPublisher writes events to the structured logger. It is the default
// when no broker is configured.
type LoggerPublisher struct {
	logger *slog.Logger
}

// NewLoggerPublisher constructs a logging publisher.
func NewLoggerPublisher(logger *slog.Logger) *LoggerPublisher {
	return &LoggerPublisher{logger: logger}
}

// Publish writes the event to the structured logger.
func (p *LoggerPublisher) Publish(_ context.Context, event Event) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("obligation event",
		"kind", event.Kind,
		"transaction_id", event.TxID,
		"linear_id", event.LinearID,
		"amount", event.Amount,
		"paid", event.Paid,
	)
	return nil
}
