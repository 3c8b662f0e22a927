package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/storage/models"
	"github.com/feedback-insights/backend/pkg/logger"
)

// Sentiment label thresholds on the polarity score.
const (
	positiveThreshold = 0.25
	negativeThreshold = -0.25
)

const maxEntities = 10

// Result is the normalized analysis record for a piece of feedback text,
// ready for ingestion.
type Result struct {
	Sentiment      string                 `json:"sentiment"`
	Score          float64                `json:"score"`
	Magnitude      float64                `json:"magnitude"`
	Category       string                 `json:"category"`
	Entities       []models.EntityMention `json:"entities"`
	Recommendation string                 `json:"recommendation"`
}

// Analyzer scores feedback text locally: polarity from a bilingual lexicon,
// named entities from prose's NER, category from a keyword heuristic.
type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) AnalyzeText(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty")
	}

	score, magnitude := scoreSentiment(text)
	label := Label(score)

	entities, err := a.extractEntities(text)
	if err != nil {
		// NER failure degrades the result, it does not block analysis.
		logger.Warn("Entity extraction failed", zap.Error(err))
		entities = nil
	}

	result := &Result{
		Sentiment:      label,
		Score:          score,
		Magnitude:      magnitude,
		Category:       Categorize(text),
		Entities:       entities,
		Recommendation: recommendationFor(label),
	}

	logger.Debug("Text analyzed",
		zap.String("sentiment", label),
		zap.Float64("score", score),
		zap.String("category", result.Category),
		zap.Int("entities", len(entities)),
	)
	return result, nil
}

// Label maps a polarity score to its sentiment label.
func Label(score float64) string {
	switch {
	case score > positiveThreshold:
		return models.SentimentPositive
	case score < negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// scoreSentiment returns the mean polarity of the lexicon hits in [-1,1]
// and the accumulated intensity.
func scoreSentiment(text string) (score, magnitude float64) {
	var sum float64
	var hits int

	for _, word := range tokenize(text) {
		polarity, ok := lexicon[word]
		if !ok {
			continue
		}
		sum += polarity
		if polarity < 0 {
			magnitude -= polarity
		} else {
			magnitude += polarity
		}
		hits++
	}

	if hits == 0 {
		return 0, 0
	}
	return sum / float64(hits), magnitude
}

func (a *Analyzer) extractEntities(text string) ([]models.EntityMention, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	mentions := make(map[string]int)
	types := make(map[string]string)
	order := make([]string, 0)
	totalMentions := 0

	for _, ent := range doc.Entities() {
		name := strings.TrimSpace(ent.Text)
		if name == "" {
			continue
		}
		if _, seen := mentions[name]; !seen {
			order = append(order, name)
			types[name] = entityType(ent.Label)
		}
		mentions[name]++
		totalMentions++
	}

	entities := make([]models.EntityMention, 0, len(order))
	for _, name := range order {
		if len(entities) == maxEntities {
			break
		}
		entities = append(entities, models.EntityMention{
			Name:       name,
			EntityType: types[name],
			Relevance:  float64(mentions[name]) / float64(totalMentions),
		})
	}
	return entities, nil
}

func entityType(label string) string {
	switch label {
	case "PERSON":
		return "PERSON"
	case "GPE", "LOCATION":
		return "PLACE"
	case "ORGANIZATION", "ORG":
		return "ORGANIZATION"
	default:
		return "OTHER"
	}
}

// Categorize assigns a coarse product category from keyword hits, falling
// back to the general bucket.
func Categorize(text string) string {
	lowered := strings.ToLower(text)
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				return category
			}
		}
	}
	return models.DefaultCategory
}

func recommendationFor(label string) string {
	switch label {
	case models.SentimentPositive:
		return "Satisfied customer, consider for testimonials"
	case models.SentimentNegative:
		return "URGENT: dissatisfied customer, contact immediately"
	default:
		return "Neutral feedback, schedule a follow-up"
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

var categoryKeywords = map[string][]string{
	"Electronics": {"headphones", "phone", "laptop", "tablet", "auriculares", "telefono", "teléfono"},
	"Clothing":    {"shirt", "shoes", "clothes", "dress", "camisa", "zapatos", "ropa", "vestido"},
	"Food":        {"food", "restaurant", "flavor", "taste", "comida", "restaurante", "sabor"},
	"Logistics":   {"delivery", "shipping", "package", "entrega", "envio", "envío", "paquete"},
}

// Polarity lexicon, English plus Spanish since feedback arrives in both.
var lexicon = map[string]float64{
	"excellent": 1, "amazing": 1, "great": 0.8, "good": 0.6, "love": 0.9,
	"perfect": 1, "happy": 0.7, "fast": 0.4, "recommend": 0.7, "nice": 0.5,
	"best": 0.9, "wonderful": 0.9, "satisfied": 0.6, "helpful": 0.5,

	"terrible": -1, "awful": -1, "bad": -0.6, "horrible": -1, "hate": -0.9,
	"broken": -0.7, "slow": -0.4, "worst": -1, "poor": -0.6, "disappointed": -0.7,
	"useless": -0.8, "refund": -0.5, "late": -0.4, "rude": -0.7,

	"excelente": 1, "increible": 1, "increíble": 1, "bueno": 0.6, "buena": 0.6,
	"encanta": 0.9, "perfecto": 1, "feliz": 0.7, "rapido": 0.4, "rápido": 0.4,
	"recomiendo": 0.7, "satisfecho": 0.6, "genial": 0.8,

	"malo": -0.6, "mala": -0.6, "pesimo": -1, "pésimo": -1, "odio": -0.9,
	"roto": -0.7, "lento": -0.4, "peor": -1, "decepcionado": -0.7,
	"inutil": -0.8, "inútil": -0.8, "tarde": -0.4,
}
