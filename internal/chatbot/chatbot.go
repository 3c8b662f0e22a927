package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/llm"
	"github.com/feedback-insights/backend/internal/storage/sqlite"
	"github.com/feedback-insights/backend/pkg/logger"
)

const (
	ModeSimple   = "simple"
	ModeAdvanced = "advanced"
)

// Responder answers chat questions over the stored feedback history. In
// simple mode intents are keyword-matched; with an LLM client configured the
// reply is generated with the current statistics as context, falling back to
// simple mode when the LLM is unavailable.
type Responder struct {
	store *sqlite.Store
	llm   *llm.Client
}

func New(store *sqlite.Store, llmClient *llm.Client) *Responder {
	return &Responder{store: store, llm: llmClient}
}

// Mode reports which reply path is active.
func (r *Responder) Mode() string {
	if r.llm != nil {
		return ModeAdvanced
	}
	return ModeSimple
}

// Reply produces the answer text and the mode that produced it.
func (r *Responder) Reply(ctx context.Context, message string) (string, string, error) {
	if r.llm != nil {
		reply, err := r.advancedReply(ctx, message)
		if err == nil {
			return reply, ModeAdvanced, nil
		}
		logger.Warn("LLM reply failed, falling back to simple mode", zap.Error(err))
	}

	reply, err := r.simpleReply(message)
	if err != nil {
		return "", "", err
	}
	return reply, ModeSimple, nil
}

func (r *Responder) advancedReply(ctx context.Context, message string) (string, error) {
	stats, err := r.store.OverallStatistics()
	if err != nil {
		return "", err
	}
	categories, err := r.store.CategoryDistribution()
	if err != nil {
		return "", err
	}

	statsJSON, _ := json.Marshal(stats)
	categoriesJSON, _ := json.Marshal(categories)

	systemPrompt := `You are the assistant of a customer feedback analytics dashboard.
Answer questions about the analyzed feedback using ONLY the statistics provided.
Be concise and concrete; report counts and percentages as given.`

	userPrompt := fmt.Sprintf("Current statistics: %s\nCategory distribution: %s\n\nQuestion: %s",
		statsJSON, categoriesJSON, message)

	return r.llm.Complete(ctx, systemPrompt, userPrompt)
}

func (r *Responder) simpleReply(message string) (string, error) {
	switch intentOf(message) {
	case "stats":
		return r.statsReply()
	case "categories":
		return r.categoriesReply()
	case "recent":
		return r.recentReply()
	case "sentiment":
		return r.sentimentReply()
	case "trends":
		return r.trendsReply()
	case "help":
		return helpReply, nil
	default:
		return fallbackReply, nil
	}
}

// intentOf checks the intents in a fixed order so a message matching
// several keyword sets always routes the same way.
func intentOf(message string) string {
	lowered := strings.ToLower(message)
	for _, intent := range intents {
		for _, kw := range intent.keywords {
			if strings.Contains(lowered, kw) {
				return intent.name
			}
		}
	}
	return ""
}

func (r *Responder) statsReply() (string, error) {
	stats, err := r.store.OverallStatistics()
	if err != nil {
		return "", err
	}
	if stats.Total == 0 {
		return "No feedback has been analyzed yet. Send some text, audio or images first.", nil
	}

	return fmt.Sprintf(`Current statistics:
- Total feedback: %d
- Positive: %d (%.1f%%)
- Negative: %d (%.1f%%)
- Neutral: %d (%.1f%%)
- Average score: %.2f`,
		stats.Total,
		stats.PositiveCount, stats.PositivePercent,
		stats.NegativeCount, stats.NegativePercent,
		stats.NeutralCount, stats.NeutralPercent,
		stats.AverageScore,
	), nil
}

func (r *Responder) categoriesReply() (string, error) {
	categories, err := r.store.CategoryDistribution()
	if err != nil {
		return "", err
	}
	if len(categories) == 0 {
		return "No categories detected yet. Analyze more feedback and they will show up here.", nil
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if categories[names[i]] != categories[names[j]] {
			return categories[names[i]] > categories[names[j]]
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	b.WriteString("Detected categories:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d feedback\n", name, categories[name])
	}
	fmt.Fprintf(&b, "Total categories: %d", len(names))
	return b.String(), nil
}

func (r *Responder) recentReply() (string, error) {
	recent, err := r.store.Recent(5)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "No feedback recorded yet.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d feedback items:\n", len(recent))
	for i, f := range recent {
		fmt.Fprintf(&b, "%d. %s - %s (score %.2f)\n", i+1, strings.ToUpper(f.Sentiment), f.Kind, f.Score)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Responder) sentimentReply() (string, error) {
	stats, err := r.store.OverallStatistics()
	if err != nil {
		return "", err
	}
	if stats.Total == 0 {
		return "No sentiment analysis yet. Analyze some feedback first.", nil
	}

	summary := "The feedback is balanced."
	if stats.PositivePercent > 60 {
		summary = "Most of the feedback is positive."
	} else if stats.NegativePercent > 40 {
		summary = "Warning: there is a high share of negative feedback."
	}

	return fmt.Sprintf("%s\n- Positive: %.1f%%\n- Negative: %.1f%%\n- Average score: %.2f",
		summary, stats.PositivePercent, stats.NegativePercent, stats.AverageScore), nil
}

func (r *Responder) trendsReply() (string, error) {
	trends, err := r.store.DailyTrends(7)
	if err != nil {
		return "", err
	}
	if len(trends) == 0 {
		return "No daily trends yet.", nil
	}

	var b strings.Builder
	b.WriteString("Daily trend (oldest first):\n")
	for _, d := range trends {
		fmt.Fprintf(&b, "- %s: %d items, avg score %.2f (+%d/-%d)\n",
			d.Date, d.Total, d.AverageScore, d.PositiveCount, d.NegativeCount)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

var intents = []struct {
	name     string
	keywords []string
}{
	{"stats", []string{"statistic", "stats", "numbers", "how many", "total", "estadistica", "estadística", "cuantos", "cuántos", "datos"}},
	{"categories", []string{"categor", "classification", "types", "clasificacion", "clasificación", "tipos"}},
	{"recent", []string{"recent", "latest", "last", "new", "reciente", "ultimo", "último"}},
	{"sentiment", []string{"sentiment", "positive", "negative", "mood", "sentimiento", "positivo", "negativo"}},
	{"trends", []string{"trend", "daily", "evolution", "tendencia", "diario", "evolucion", "evolución"}},
	{"help", []string{"help", "hello", "hi ", "what can", "ayuda", "hola"}},
}

const helpReply = `Hi! I am the feedback assistant. I can help you with:
- Overall statistics ("show me the stats")
- Category distribution ("which categories do I have?")
- Recent feedback ("latest feedback")
- Sentiment overview ("how is the sentiment?")
- Daily trends ("show the trend")`

const fallbackReply = `I am not sure I understood that. Try asking about:
- "show me the statistics"
- "which categories do I have?"
- "recent feedback"
- "how is the sentiment?"`
