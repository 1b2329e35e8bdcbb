package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVault persists obligation versions in PostgreSQL. Each row is one
// immutable version; consuming a version flips its status, never deletes it.
type PostgresVault struct {
	db *pgxpool.Pool
}

// NewPostgresVault constructs a Postgres-backed vault implementation.
func NewPostgresVault(db *pgxpool.Pool) *PostgresVault {
	return &PostgresVault{db: db}
}

const stateColumns = `id, linear_id, version, amount, lender_name, lender_key,
        borrower_name, borrower_key, paid, status, tx_id, recorded_at`

func scanState(row pgx.Row) (StateRecord, error) {
	var (
		rec        StateRecord
		txID       uuid.UUID
		recordedAt time.Time
	)
	err := row.Scan(&rec.ID, &rec.LinearID, &rec.Version, &rec.State.Amount,
		&rec.State.Lender.Name, (*string)(&rec.State.Lender.Key),
		&rec.State.Borrower.Name, (*string)(&rec.State.Borrower.Key),
		&rec.State.Paid, &rec.Status, &txID, &recordedAt)
	if err != nil {
		return StateRecord{}, err
	}
	rec.State.LinearID = rec.LinearID
	rec.TxID = txID.String()
	rec.RecordedAt = recordedAt.UTC()
	return rec, nil
}

// Head returns the latest live version for the linearId.
func (v *PostgresVault) Head(ctx context.Context, linearID uuid.UUID) (StateRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM obligation_states
        WHERE linear_id = $1 ORDER BY version DESC LIMIT 1`, stateColumns)
	rec, err := scanState(v.db.QueryRow(ctx, query, linearID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StateRecord{}, ErrNotFound
		}
		return StateRecord{}, err
	}
	if rec.Status != StatusLive {
		return StateRecord{}, ErrConsumed
	}
	return rec, nil
}

// History returns every recorded version for the linearId in version order.
func (v *PostgresVault) History(ctx context.Context, linearID uuid.UUID) ([]StateRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM obligation_states
        WHERE linear_id = $1 ORDER BY version ASC`, stateColumns)
	rows, err := v.db.Query(ctx, query, linearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		rec, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// List returns every live obligation head.
func (v *PostgresVault) List(ctx context.Context) ([]StateRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM obligation_states
        WHERE status = $1 ORDER BY recorded_at ASC`, stateColumns)
	rows, err := v.db.Query(ctx, query, StatusLive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		rec, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append records an accepted transaction: it locks and consumes the input
// heads, inserts the successor versions and commits atomically. Replays of a
// known client transaction id return the original result with
// ErrDuplicateTransaction.
func (v *PostgresVault) Append(ctx context.Context, accepted AcceptedTransaction) (AppendResult, error) {
	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AppendResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if accepted.ClientTxID != "" {
		const existingTxQuery = `SELECT id FROM obligation_transactions WHERE client_tx_id = $1`
		var existingTxID uuid.UUID
		if err := tx.QueryRow(ctx, existingTxQuery, accepted.ClientTxID).Scan(&existingTxID); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return AppendResult{}, err
			}
		} else {
			heads, err := v.headsForTx(ctx, tx, existingTxID)
			if err != nil {
				return AppendResult{}, err
			}
			return AppendResult{TxID: existingTxID.String(), Heads: heads}, ErrDuplicateTransaction
		}
	}

	headQuery := fmt.Sprintf(`SELECT %s FROM obligation_states
        WHERE linear_id = $1 ORDER BY version DESC LIMIT 1 FOR UPDATE`, stateColumns)

	consumed := make(map[uuid.UUID]StateRecord, len(accepted.Consumes))
	for _, linearID := range accepted.Consumes {
		rec, err := scanState(tx.QueryRow(ctx, headQuery, linearID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return AppendResult{}, ErrNotFound
			}
			return AppendResult{}, err
		}
		if rec.Status != StatusLive {
			return AppendResult{}, ErrConsumed
		}
		consumed[linearID] = rec
	}

	for _, out := range accepted.Outputs {
		if _, spendsIt := consumed[out.LinearID]; spendsIt {
			continue
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM obligation_states WHERE linear_id = $1)`,
			out.LinearID).Scan(&exists); err != nil {
			return AppendResult{}, err
		}
		if exists {
			return AppendResult{}, ErrExists
		}
	}

	txID := uuid.New()
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `INSERT INTO obligation_transactions (id, client_tx_id, intent, contract_id, recorded_at)
        VALUES ($1, NULLIF($2, ''), $3, $4, $5)`,
		txID, accepted.ClientTxID, accepted.Intent.String(), accepted.ContractID, now); err != nil {
		return AppendResult{}, err
	}

	for _, rec := range consumed {
		if _, err := tx.Exec(ctx, `UPDATE obligation_states SET status = $1 WHERE id = $2`,
			StatusConsumed, rec.ID); err != nil {
			return AppendResult{}, err
		}
	}

	res := AppendResult{TxID: txID.String()}
	for _, out := range accepted.Outputs {
		version := 1
		if prev, ok := consumed[out.LinearID]; ok {
			version = prev.Version + 1
		}
		rec := StateRecord{
			ID:         uuid.New(),
			LinearID:   out.LinearID,
			Version:    version,
			State:      out,
			Status:     StatusLive,
			TxID:       txID.String(),
			RecordedAt: now,
		}
		if _, err := tx.Exec(ctx, `INSERT INTO obligation_states
            (id, linear_id, version, amount, lender_name, lender_key, borrower_name, borrower_key, paid, status, tx_id, recorded_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			rec.ID, rec.LinearID, rec.Version, out.Amount,
			out.Lender.Name, string(out.Lender.Key),
			out.Borrower.Name, string(out.Borrower.Key),
			out.Paid, rec.Status, txID, now); err != nil {
			return AppendResult{}, err
		}
		res.Heads = append(res.Heads, rec)
	}

	if err := tx.Commit(ctx); err != nil {
		return AppendResult{}, err
	}
	return res, nil
}

func (v *PostgresVault) headsForTx(ctx context.Context, tx pgx.Tx, txID uuid.UUID) ([]StateRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM obligation_states
        WHERE tx_id = $1 ORDER BY recorded_at ASC`, stateColumns)
	rows, err := tx.Query(ctx, query, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		rec, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
