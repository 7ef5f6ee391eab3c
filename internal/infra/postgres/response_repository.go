package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ResponseRepository stores submissions in survey_response with answers as JSONB.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

func (r *ResponseRepository) SaveResponse(ctx context.Context, surveyID string, answers map[string]any) (int64, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO survey_response (survey_id, answers) VALUES ($1, $2) RETURNING id`,
		surveyID, raw,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}
	return id, nil
}

// CountResponses returns how many submissions surveyID has received.
func (r *ResponseRepository) CountResponses(ctx context.Context, surveyID string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM survey_response WHERE survey_id=$1`, surveyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}
