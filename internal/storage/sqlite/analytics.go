package sqlite

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/feedback-insights/backend/internal/storage/models"
)

// maxDisplaySample caps text samples in recent-feedback listings.
const maxDisplaySample = 100

// OverallStatistics aggregates the whole history directly from the feedback
// table; the daily rollups are a derived convenience, not authoritative for
// all-time stats. An empty store reports zeros instead of dividing by zero.
func (s *Store) OverallStatistics() (*models.OverallStats, error) {
	stats := &models.OverallStats{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	rows, err := s.db.Query(`SELECT sentiment, COUNT(*) FROM feedback GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sentiments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sentiment string
		var count int
		if err := rows.Scan(&sentiment, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}
		switch sentiment {
		case models.SentimentPositive:
			stats.PositiveCount = count
		case models.SentimentNegative:
			stats.NegativeCount = count
		case models.SentimentNeutral:
			stats.NeutralCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sentiment counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRow(`SELECT AVG(score) FROM feedback`).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}

	total := float64(stats.Total)
	stats.AverageScore = round2(avg.Float64)
	stats.PositivePercent = round1(float64(stats.PositiveCount) / total * 100)
	stats.NegativePercent = round1(float64(stats.NegativeCount) / total * 100)
	stats.NeutralPercent = round1(float64(stats.NeutralCount) / total * 100)

	return stats, nil
}

// Recent returns the newest records, text samples clipped for display.
func (s *Store) Recent(limit int) ([]models.RecentFeedback, error) {
	rows, err := s.db.Query(`
		SELECT feedback_id, kind, sentiment, score, category, text_sample, timestamp
		FROM feedback
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent feedback: %w", err)
	}
	defer rows.Close()

	results := make([]models.RecentFeedback, 0, limit)
	for rows.Next() {
		var r models.RecentFeedback
		var category, textSample sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &r.Sentiment, &r.Score, &category, &textSample, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan recent row: %w", err)
		}
		r.Score = round2(r.Score)
		r.Category = category.String
		if sample := []rune(textSample.String); len(sample) > maxDisplaySample {
			r.TextSample = string(sample[:maxDisplaySample])
		} else {
			r.TextSample = textSample.String
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CategoryDistribution maps category to record count, most frequent first.
func (s *Store) CategoryDistribution() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT category, COUNT(*)
		FROM feedback
		WHERE category IS NOT NULL
		GROUP BY category
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		dist[category] = count
	}
	return dist, rows.Err()
}

// StatsByKind maps analysis kind (text/audio/image) to record count.
func (s *Store) StatsByKind() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM feedback GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query kinds: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan kind row: %w", err)
		}
		stats[kind] = count
	}
	return stats, rows.Err()
}

// DailyTrends returns the rollups for the most recent days, oldest first.
func (s *Store) DailyTrends(days int) ([]models.DailyAggregate, error) {
	rows, err := s.db.Query(`
		SELECT date, total, positive_count, negative_count, neutral_count, average_score, last_updated
		FROM daily_stats
		ORDER BY date DESC
		LIMIT ?`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trends: %w", err)
	}
	defer rows.Close()

	trends := make([]models.DailyAggregate, 0, days)
	for rows.Next() {
		var d models.DailyAggregate
		if err := rows.Scan(&d.Date, &d.Total, &d.PositiveCount, &d.NegativeCount, &d.NeutralCount, &d.AverageScore, &d.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		d.AverageScore = round2(d.AverageScore)
		trends = append(trends, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for charting.
	for i, j := 0, len(trends)-1; i < j; i, j = i+1, j-1 {
		trends[i], trends[j] = trends[j], trends[i]
	}
	return trends, nil
}

// TopEntities groups mentions by (name, type), ranked by mention count and
// then by average relevance.
func (s *Store) TopEntities(limit int) ([]models.EntityGroup, error) {
	rows, err := s.db.Query(`
		SELECT name, entity_type, COUNT(*) AS mentions, AVG(relevance) AS avg_relevance
		FROM entities
		GROUP BY name, entity_type
		ORDER BY mentions DESC, avg_relevance DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top entities: %w", err)
	}
	defer rows.Close()

	groups := make([]models.EntityGroup, 0, limit)
	for rows.Next() {
		var g models.EntityGroup
		var avgRelevance sql.NullFloat64
		if err := rows.Scan(&g.Name, &g.EntityType, &g.Mentions, &avgRelevance); err != nil {
			return nil, fmt.Errorf("failed to scan entity group: %w", err)
		}
		g.AvgRelevance = round2(avgRelevance.Float64)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// SentimentByCategory cross-tabs sentiment counts per category, with absent
// sentiments defaulting to zero.
func (s *Store) SentimentByCategory() (map[string]map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT category, sentiment, COUNT(*)
		FROM feedback
		WHERE category IS NOT NULL
		GROUP BY category, sentiment
		ORDER BY category, sentiment`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment by category: %w", err)
	}
	defer rows.Close()

	result := make(map[string]map[string]int)
	for rows.Next() {
		var category, sentiment string
		var count int
		if err := rows.Scan(&category, &sentiment, &count); err != nil {
			return nil, fmt.Errorf("failed to scan cross-tab row: %w", err)
		}
		if _, ok := result[category]; !ok {
			result[category] = map[string]int{
				models.SentimentPositive: 0,
				models.SentimentNegative: 0,
				models.SentimentNeutral:  0,
			}
		}
		result[category][sentiment] = count
	}
	return result, rows.Err()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
