package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/infra/db"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(conn *sql.DB) *FailureRepository { return &FailureRepository{db: conn} }

func (r *FailureRepository) Record(ctx context.Context, f *analysis.Failure) error {
	const q = `
INSERT INTO analysis_failures (user_id, component_name, stage, kind, message, created_at)
VALUES (?,?,?,?,?,?);`
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := r.db.ExecContext(ctx, q, db.DashIfEmpty(f.UserID), db.DashIfEmpty(f.ComponentName),
		db.DashIfEmpty(f.Stage), db.DashIfEmpty(f.Kind), db.DashIfEmpty(f.Message), db.Stamp(created))
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = id
	}
	return nil
}

func (r *FailureRepository) ListByComponent(ctx context.Context, userID, componentName string, limit int) ([]*analysis.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, user_id, component_name, stage, kind, message, created_at
FROM analysis_failures
WHERE user_id = ? AND component_name = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, userID, componentName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*analysis.Failure
	for rows.Next() {
		var f analysis.Failure
		if err := rows.Scan(&f.ID, &f.UserID, &f.ComponentName, &f.Stage, &f.Kind, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
