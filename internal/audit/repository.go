package audit

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stallbook/stallbook/internal/platform/db"
	"github.com/stallbook/stallbook/internal/shared"
)

const recordColumns = "id, event_id, user_id, action, entity, entity_id, before, after, origin, description, created_at"

// PGRepository reads and appends audit_records.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres audit repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Write appends entry. Replays of the same event id are ignored.
func (r *PGRepository) Write(ctx context.Context, entry shared.AuditEntry) error {
	var origin *string
	if entry.Origin != "" {
		origin = &entry.Origin
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_records (event_id, user_id, action, entity, entity_id, before, after, origin, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id) DO NOTHING`,
		entry.EventID, entry.UserID, entry.Action, entry.Entity, entry.EntityID,
		nullJSON(entry.Before), nullJSON(entry.After), origin, entry.Description, entry.At)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// List returns the user's records newest first and the unpaged total.
func (r *PGRepository) List(ctx context.Context, userID int64, f Filters) ([]Record, int, error) {
	b := db.Builder.Select(recordColumns).From("audit_records").Where(sq.Eq{"user_id": userID})
	if f.Entity != "" {
		b = b.Where(sq.Eq{"entity": f.Entity})
	}
	if f.Action != "" {
		b = b.Where(sq.Eq{"action": f.Action})
	}
	if f.Period != nil {
		if !f.Period.From.IsZero() {
			b = b.Where(sq.GtOrEq{"created_at": f.Period.From})
		}
		if !f.Period.To.IsZero() {
			b = b.Where(sq.Lt{"created_at": f.Period.To})
		}
	}
	total, err := db.Count(ctx, r.pool, b)
	if err != nil {
		return nil, 0, fmt.Errorf("audit: count: %w", err)
	}
	b = db.Page(b.OrderBy("created_at DESC", "id DESC"), f.Page.Page, f.Page.Limit)
	records, err := r.query(ctx, b)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// EntityHistory returns every record about one entity newest first.
func (r *PGRepository) EntityHistory(ctx context.Context, userID int64, entity string, entityID int64) ([]Record, error) {
	b := db.Builder.Select(recordColumns).From("audit_records").
		Where(sq.Eq{"user_id": userID, "entity": entity, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC")
	return r.query(ctx, b)
}

// ByActions returns the newest records whose action is one of actions.
func (r *PGRepository) ByActions(ctx context.Context, userID int64, actions []string, limit int) ([]Record, error) {
	b := db.Builder.Select(recordColumns).From("audit_records").
		Where(sq.Eq{"user_id": userID, "action": actions}).
		OrderBy("created_at DESC", "id DESC")
	return r.query(ctx, db.Page(b, 1, limit))
}

// CountByAction groups the user's records in p by action.
func (r *PGRepository) CountByAction(ctx context.Context, userID int64, p shared.Period) ([]ActionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT action, COUNT(*)
		FROM audit_records
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY action
		ORDER BY COUNT(*) DESC, action`, userID, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("audit: count by action: %w", err)
	}
	defer rows.Close()
	counts := make([]ActionCount, 0)
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *PGRepository) query(ctx context.Context, b sq.SelectBuilder) ([]Record, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec           Record
			before, after []byte
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.UserID, &rec.Action, &rec.Entity, &rec.EntityID,
			&before, &after, &rec.Origin, &rec.Description, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Before, rec.After = before, after
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Sink       = (*PGRepository)(nil)
)
