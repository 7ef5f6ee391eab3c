package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"survey-builder/internal/domain"
)

// SurveyCache reads and writes the survey_cache table.
type SurveyCache struct {
	pool *pgxpool.Pool
}

func NewSurveyCache(pool *pgxpool.Pool) *SurveyCache {
	return &SurveyCache{pool: pool}
}

func (c *SurveyCache) GetSurvey(ctx context.Context, key string) (domain.SurveyContent, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT survey_json FROM survey_cache WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SurveyContent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SurveyContent{}, fmt.Errorf("load cached survey: %w", err)
	}
	var content domain.SurveyContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return domain.SurveyContent{}, fmt.Errorf("unmarshal cached survey: %w", err)
	}
	return content, nil
}

// PutSurvey inserts entry; a row that already holds the key wins.
func (c *SurveyCache) PutSurvey(ctx context.Context, entry domain.CachedSurvey) error {
	raw, err := json.Marshal(entry.Content)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO survey_cache (key, description_norm, num_questions, language, survey_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING`,
		entry.Key, entry.DescriptionNorm, entry.NumQuestions, entry.Language, raw,
	)
	if err != nil {
		return fmt.Errorf("cache survey: %w", err)
	}
	return nil
}
