package chatbot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedback-insights/backend/internal/storage/models"
	"github.com/feedback-insights/backend/internal/storage/sqlite"
)

func newSeededResponder(t *testing.T) *Responder {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	records := []*models.FeedbackRecord{
		{ID: "a", Kind: models.KindText, Sentiment: models.SentimentPositive, Score: 0.8, Category: "Electronics"},
		{ID: "b", Kind: models.KindText, Sentiment: models.SentimentPositive, Score: 0.6, Category: "Electronics"},
		{ID: "c", Kind: models.KindAudio, Sentiment: models.SentimentNegative, Score: -0.5, Category: "Logistics"},
	}
	for _, rec := range records {
		stored, err := store.Ingest(rec)
		require.NoError(t, err)
		require.True(t, stored)
	}
	return New(store, nil)
}

func TestModeWithoutLLM(t *testing.T) {
	responder := newSeededResponder(t)
	assert.Equal(t, ModeSimple, responder.Mode())
}

func TestReplyStats(t *testing.T) {
	responder := newSeededResponder(t)

	reply, mode, err := responder.Reply(context.Background(), "show me the stats")
	require.NoError(t, err)
	assert.Equal(t, ModeSimple, mode)
	assert.Contains(t, reply, "Total feedback: 3")
	assert.Contains(t, reply, "Positive: 2 (66.7%)")
	assert.Contains(t, reply, "Negative: 1 (33.3%)")
	assert.Contains(t, reply, "Average score: 0.30")
}

func TestReplyCategories(t *testing.T) {
	responder := newSeededResponder(t)

	reply, _, err := responder.Reply(context.Background(), "which categories do I have?")
	require.NoError(t, err)
	assert.Contains(t, reply, "- Electronics: 2 feedback")
	assert.Contains(t, reply, "- Logistics: 1 feedback")
	assert.Contains(t, reply, "Total categories: 2")
}

func TestReplyRecent(t *testing.T) {
	responder := newSeededResponder(t)

	reply, _, err := responder.Reply(context.Background(), "recent feedback")
	require.NoError(t, err)
	assert.Contains(t, reply, "Last 3 feedback items:")
	assert.Contains(t, reply, "POSITIVE")
	assert.Contains(t, reply, "NEGATIVE")
}

func TestReplySentiment(t *testing.T) {
	responder := newSeededResponder(t)

	reply, _, err := responder.Reply(context.Background(), "how is the sentiment?")
	require.NoError(t, err)
	assert.Contains(t, reply, "Most of the feedback is positive.")
	assert.Contains(t, reply, "66.7%")
}

func TestReplyTrends(t *testing.T) {
	responder := newSeededResponder(t)

	reply, _, err := responder.Reply(context.Background(), "show the trend")
	require.NoError(t, err)
	assert.Contains(t, reply, "Daily trend (oldest first):")
	assert.Contains(t, reply, "3 items")
}

func TestReplyHelpAndFallback(t *testing.T) {
	responder := newSeededResponder(t)

	reply, _, err := responder.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, reply, "feedback assistant")

	reply, _, err = responder.Reply(context.Background(), "quack quack")
	require.NoError(t, err)
	assert.Contains(t, reply, "not sure I understood")
}

func TestReplyEmptyStore(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	responder := New(store, nil)

	reply, _, err := responder.Reply(context.Background(), "show me the stats")
	require.NoError(t, err)
	assert.Contains(t, reply, "No feedback has been analyzed yet")
}

func TestIntentSpanish(t *testing.T) {
	assert.Equal(t, "stats", intentOf("dame las estadísticas"))
	assert.Equal(t, "help", intentOf("hola"))
}

func TestIntentOrderIsStable(t *testing.T) {
	// Matches both the stats and sentiment keyword sets; the earlier
	// intent always wins.
	for i := 0; i < 50; i++ {
		assert.Equal(t, "stats", intentOf("how many positive reviews are there?"))
	}
	assert.Equal(t, "categories", intentOf("what types of recent feedback exist?"))
}
