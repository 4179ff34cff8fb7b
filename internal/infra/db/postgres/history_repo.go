package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/whatif/internal/domain/analysis"
	"github.com/bryanwahyu/whatif/internal/infra/db"
)

type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistoryRepository(conn *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: conn, now: time.Now}
}

// Save inserts an analysis record
func (r *HistoryRepository) Save(ctx context.Context, userID string, res *analysis.AnalysisResult) (string, time.Time, error) {
	const q = `
INSERT INTO analyses
  (id, user_id, component_name, result_json, created_at)
VALUES ($1,$2,$3,$4,$5);
`
	body, err := db.EncodePayload(res)
	if err != nil {
		return "", time.Time{}, err
	}
	id := db.NewID()
	created := db.Stamp(r.now())
	if _, err := r.db.ExecContext(ctx, q, id, userID, res.ComponentName, body, created); err != nil {
		return "", time.Time{}, err
	}
	return id, created, nil
}

// Fetch returns the user's analysis records ordered by created_at desc
func (r *HistoryRepository) Fetch(ctx context.Context, userID string, limit int) ([]analysis.AnalysisResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id::text, component_name, result_json::text, created_at
FROM analyses
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.AnalysisResult
	for rows.Next() {
		var id, name, body string
		var created time.Time
		if err := rows.Scan(&id, &name, &body, &created); err != nil {
			return nil, err
		}
		res, err := db.DecodeRow(id, name, body, created)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
