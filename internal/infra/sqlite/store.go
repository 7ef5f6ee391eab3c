package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"survey-builder/internal/domain"
)

// SurveyCacheRow mirrors the survey_cache table.
type SurveyCacheRow struct {
	ID              uint      `gorm:"primaryKey"`
	Key             string    `gorm:"uniqueIndex;size:128;not null"`
	DescriptionNorm string    `gorm:"not null"`
	NumQuestions    int       `gorm:"not null"`
	Language        string    `gorm:"size:16;not null"`
	SurveyJSON      string    `gorm:"column:survey_json;not null"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (SurveyCacheRow) TableName() string { return "survey_cache" }

// SurveyResponseRow mirrors the survey_response table.
type SurveyResponseRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SurveyID  string    `gorm:"index;size:64;not null"`
	Answers   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (SurveyResponseRow) TableName() string { return "survey_response" }

// Store keeps the survey cache and submitted responses in a single SQLite file,
// for deployments without Postgres.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates its tables.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&SurveyCacheRow{}, &SurveyResponseRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) GetSurvey(ctx context.Context, key string) (domain.SurveyContent, error) {
	var row SurveyCacheRow
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SurveyContent{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SurveyContent{}, fmt.Errorf("load cached survey: %w", err)
	}
	var content domain.SurveyContent
	if err := json.Unmarshal([]byte(row.SurveyJSON), &content); err != nil {
		return domain.SurveyContent{}, fmt.Errorf("unmarshal cached survey: %w", err)
	}
	return content, nil
}

func (s *Store) PutSurvey(ctx context.Context, entry domain.CachedSurvey) error {
	raw, err := json.Marshal(entry.Content)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row := SurveyCacheRow{
		Key:             entry.Key,
		DescriptionNorm: entry.DescriptionNorm,
		NumQuestions:    entry.NumQuestions,
		Language:        entry.Language,
		SurveyJSON:      string(raw),
		CreatedAt:       createdAt,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("cache survey: %w", err)
	}
	return nil
}

func (s *Store) SaveResponse(ctx context.Context, surveyID string, answers map[string]any) (int64, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	row := SurveyResponseRow{SurveyID: surveyID, Answers: string(raw), CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}
	return row.ID, nil
}

// Responses returns the decoded answers submitted for surveyID, oldest first.
func (s *Store) Responses(ctx context.Context, surveyID string) ([]map[string]any, error) {
	var rows []SurveyResponseRow
	if err := s.db.WithContext(ctx).Where("survey_id = ?", surveyID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		var answers map[string]any
		if err := json.Unmarshal([]byte(row.Answers), &answers); err != nil {
			return nil, fmt.Errorf("unmarshal response %d: %w", row.ID, err)
		}
		out = append(out, answers)
	}
	return out, nil
}
