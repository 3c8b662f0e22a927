package models

const (
	KindText  = "text"
	KindAudio = "audio"
	KindImage = "image"

	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// MaxTextSample is the hard cap applied to stored text samples at ingest.
const MaxTextSample = 500

// DefaultCategory is assigned when the producer supplied no category.
const DefaultCategory = "General"

// FeedbackRecord is one analyzed feedback item as produced by an analysis
// collaborator (the local text analyzer or an external speech/vision service).
type FeedbackRecord struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Sentiment  string          `json:"sentiment"`
	Score      float64         `json:"score"`
	Magnitude  *float64        `json:"magnitude,omitempty"`
	Category   string          `json:"category,omitempty"`
	TextSample string          `json:"text_sample,omitempty"`
	Timestamp  string          `json:"timestamp"`
	Metadata   Metadata        `json:"metadata,omitempty"`
	Entities   []EntityMention `json:"entities,omitempty"`
}

// EntityMention is a named entity detected in a feedback item.
type EntityMention struct {
	Name       string  `json:"name"`
	EntityType string  `json:"entity_type"`
	Relevance  float64 `json:"relevance"`
}

// Metadata carries the sparse auxiliary fields of an analysis result. The
// field set is fixed; absent fields are dropped from storage via omitempty.
type Metadata struct {
	Confidence      *float64         `json:"confidence,omitempty"`
	FaceCount       *int             `json:"face_count,omitempty"`
	Objects         []DetectedObject `json:"objects,omitempty"`
	AudioConfidence *float64         `json:"audio_confidence,omitempty"`
}

func (m Metadata) IsEmpty() bool {
	return m.Confidence == nil && m.FaceCount == nil && len(m.Objects) == 0 && m.AudioConfidence == nil
}

// DetectedObject is a labeled object found in an image.
type DetectedObject struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// DailyAggregate is the incrementally maintained per-day rollup.
// Invariant: Total == PositiveCount + NegativeCount + NeutralCount.
type DailyAggregate struct {
	Date          string  `json:"date"`
	Total         int     `json:"total"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	AverageScore  float64 `json:"average_score"`
	LastUpdated   string  `json:"last_updated"`
}

// OverallStats summarizes the whole feedback history. Percentages are
// rounded to one decimal place and report zero on an empty store.
type OverallStats struct {
	Total           int     `json:"total"`
	PositiveCount   int     `json:"positive_count"`
	NegativeCount   int     `json:"negative_count"`
	NeutralCount    int     `json:"neutral_count"`
	AverageScore    float64 `json:"average_score"`
	PositivePercent float64 `json:"positive_percent"`
	NegativePercent float64 `json:"negative_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
}

// RecentFeedback is the display projection of a record, with the text
// sample cut down to 100 characters.
type RecentFeedback struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Category   string  `json:"category,omitempty"`
	TextSample string  `json:"text_sample,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// EntityGroup is a (name, type) entity cluster ranked by mention count,
// ties broken by average relevance.
type EntityGroup struct {
	Name         string  `json:"name"`
	EntityType   string  `json:"entity_type"`
	Mentions     int     `json:"mentions"`
	AvgRelevance float64 `json:"avg_relevance"`
}

// NormalizeSentiment maps unknown sentiment labels to neutral at the ingest
// boundary so store invariants never depend on caller discipline.
func NormalizeSentiment(s string) string {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	default:
		return SentimentNeutral
	}
}

// NormalizeKind defaults unknown kinds to text.
func NormalizeKind(k string) string {
	switch k {
	case KindText, KindAudio, KindImage:
		return k
	default:
		return KindText
	}
}
