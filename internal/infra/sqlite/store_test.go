package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"survey-builder/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "surveys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSurveyCacheFirstWriteWins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.GetSurvey(ctx, "k")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	entry := domain.CachedSurvey{
		Key:             "k",
		DescriptionNorm: "coffee shop",
		NumQuestions:    3,
		Language:        "en",
		Content:         domain.SurveyContent{Title: "first", Questions: []domain.SurveyQuestion{{ID: "q1", Type: domain.ExternalOpenText, Text: "Why?", Required: true}}},
	}
	require.NoError(t, store.PutSurvey(ctx, entry))
	entry.Content.Title = "second"
	require.NoError(t, store.PutSurvey(ctx, entry))

	got, err := store.GetSurvey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "Why?", got.Questions[0].Text)
}

func TestSaveResponses(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id1, err := store.SaveResponse(ctx, "srv_a", map[string]any{"q1": "yes", "q2": []string{"c1", "c2"}})
	require.NoError(t, err)
	id2, err := store.SaveResponse(ctx, "srv_a", map[string]any{"q1": 3})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	got, err := store.Responses(ctx, "srv_a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []any{"c1", "c2"}, got[0]["q2"])
	assert.Equal(t, float64(3), got[1]["q1"])
}
