package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/processflow/internal/domain"
)

// MovementArchive durably stores movement records outside the in-memory store.
type MovementArchive interface {
	Append(ctx context.Context, tenantID string, record domain.MovementRecord) error
	// Replace makes the archived history of an order equal to records.
	Replace(ctx context.Context, tenantID, orderID string, records []domain.MovementRecord) error
	ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.MovementRecord, error)
}

type movementArchive struct {
	pool *pgxpool.Pool
}

// NewMovementArchive builds a Postgres-backed archive.
func NewMovementArchive(pool *pgxpool.Pool) MovementArchive {
	return &movementArchive{pool: pool}
}

const insertMovement = `
        INSERT INTO movement_records (id, tenant_id, order_id, previous_stage_id, new_stage_id, actor_id, actor_name,
            comment, previous_location, new_location, automatic, recorded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

func movementArgs(tenantID string, record domain.MovementRecord) []any {
	return []any{
		record.ID,
		tenantID,
		record.OrderID,
		record.PreviousStageID,
		record.NewStageID,
		record.ActorID,
		record.ActorName,
		record.Comment,
		string(record.PreviousLoc),
		string(record.NewLoc),
		record.Automatic,
		record.At,
	}
}

// Append is idempotent on the record id.
func (r *movementArchive) Append(ctx context.Context, tenantID string, record domain.MovementRecord) error {
	_, err := r.pool.Exec(ctx, insertMovement+` ON CONFLICT (id) DO NOTHING`, movementArgs(tenantID, record)...)
	return err
}

// Replace swaps the order's rows in one transaction. Rows left by an earlier
// process under the same ids are overwritten.
func (r *movementArchive) Replace(ctx context.Context, tenantID, orderID string, records []domain.MovementRecord) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM movement_records WHERE tenant_id=$1 AND order_id=$2`, tenantID, orderID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, record := range records {
			batch.Queue(insertMovement+`
        ON CONFLICT (id) DO UPDATE SET tenant_id=EXCLUDED.tenant_id, order_id=EXCLUDED.order_id,
            previous_stage_id=EXCLUDED.previous_stage_id, new_stage_id=EXCLUDED.new_stage_id,
            actor_id=EXCLUDED.actor_id, actor_name=EXCLUDED.actor_name, comment=EXCLUDED.comment,
            previous_location=EXCLUDED.previous_location, new_location=EXCLUDED.new_location,
            automatic=EXCLUDED.automatic, recorded_at=EXCLUDED.recorded_at`, movementArgs(tenantID, record)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *movementArchive) ListByOrder(ctx context.Context, tenantID, orderID string) ([]domain.MovementRecord, error) {
	const query = `
        SELECT id, order_id, previous_stage_id, new_stage_id, actor_id, actor_name, comment,
            previous_location, new_location, automatic, recorded_at
        FROM movement_records WHERE tenant_id=$1 AND order_id=$2 ORDER BY recorded_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MovementRecord
	for rows.Next() {
		var (
			record      domain.MovementRecord
			previousLoc string
			newLoc      string
		)
		if err := rows.Scan(
			&record.ID,
			&record.OrderID,
			&record.PreviousStageID,
			&record.NewStageID,
			&record.ActorID,
			&record.ActorName,
			&record.Comment,
			&previousLoc,
			&newLoc,
			&record.Automatic,
			&record.At,
		); err != nil {
			return nil, err
		}
		record.PreviousLoc = domain.Location(previousLoc)
		record.NewLoc = domain.Location(newLoc)
		result = append(result, record)
	}
	return result, rows.Err()
}
