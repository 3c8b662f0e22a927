package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedback-insights/backend/internal/storage/models"
)

func TestLabelThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.8, models.SentimentPositive},
		{0.26, models.SentimentPositive},
		{0.25, models.SentimentNeutral},
		{0.0, models.SentimentNeutral},
		{-0.25, models.SentimentNeutral},
		{-0.26, models.SentimentNegative},
		{-0.9, models.SentimentNegative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.score), "score %v", tt.score)
	}
}

func TestScoreSentiment(t *testing.T) {
	score, magnitude := scoreSentiment("This product is excellent, amazing quality")
	assert.Greater(t, score, positiveThreshold)
	assert.Greater(t, magnitude, 0.0)

	score, magnitude = scoreSentiment("Terrible service, the item arrived broken")
	assert.Less(t, score, negativeThreshold)
	assert.Greater(t, magnitude, 0.0)

	score, magnitude = scoreSentiment("The item arrived on Tuesday")
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, magnitude)
}

func TestScoreSentimentSpanish(t *testing.T) {
	score, _ := scoreSentiment("Excelente producto, lo recomiendo")
	assert.Greater(t, score, positiveThreshold)

	score, _ = scoreSentiment("Pésimo servicio, llegó roto")
	assert.Less(t, score, negativeThreshold)
}

func TestScoreSentimentMixed(t *testing.T) {
	// Equal positive and negative weight cancels to neutral.
	score, magnitude := scoreSentiment("excellent but terrible")
	assert.Equal(t, 0.0, score)
	assert.InDelta(t, 2.0, magnitude, 0.001)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"The headphones stopped working", "Electronics"},
		{"These shoes run small", "Clothing"},
		{"The restaurant was crowded", "Food"},
		{"My package never arrived", "Logistics"},
		{"La entrega fue muy lenta", "Logistics"},
		{"I have no strong opinion", models.DefaultCategory},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.text), "text %q", tt.text)
	}
}

func TestAnalyzeTextEmpty(t *testing.T) {
	a := New()
	_, err := a.AnalyzeText("   ")
	assert.Error(t, err)
}

func TestAnalyzeText(t *testing.T) {
	a := New()

	result, err := a.AnalyzeText("The delivery was excellent, I love this shipping service")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)
	assert.Greater(t, result.Score, positiveThreshold)
	assert.Greater(t, result.Magnitude, 0.0)
	assert.Equal(t, "Logistics", result.Category)
	assert.Contains(t, result.Recommendation, "testimonial")
}

func TestAnalyzeTextNegativeRecommendation(t *testing.T) {
	a := New()

	result, err := a.AnalyzeText("Horrible experience, the package arrived broken and late")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, result.Sentiment)
	assert.Contains(t, result.Recommendation, "URGENT")
}

func TestExtractEntities(t *testing.T) {
	a := New()

	entities, err := a.extractEntities("John Smith ordered from London. John Smith was satisfied.")
	require.NoError(t, err)
	require.NotEmpty(t, entities)

	total := 0.0
	for _, ent := range entities {
		assert.NotEmpty(t, ent.Name)
		assert.Contains(t, []string{"PERSON", "PLACE", "ORGANIZATION", "OTHER"}, ent.EntityType)
		assert.Greater(t, ent.Relevance, 0.0)
		assert.LessOrEqual(t, ent.Relevance, 1.0)
		total += ent.Relevance
	}
	assert.LessOrEqual(t, len(entities), maxEntities)
	assert.LessOrEqual(t, total, 1.0001)
}

func TestEntityTypeMapping(t *testing.T) {
	assert.Equal(t, "PERSON", entityType("PERSON"))
	assert.Equal(t, "PLACE", entityType("GPE"))
	assert.Equal(t, "ORGANIZATION", entityType("ORGANIZATION"))
	assert.Equal(t, "OTHER", entityType("DATE"))
}
