package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/storage/models"
	"github.com/feedback-insights/backend/pkg/logger"
)

// Store owns the feedback, entity and daily aggregate tables. All mutation
// goes through it; every public operation is its own transaction scope.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer: SQLite serializes writers anyway, a single pooled
	// connection keeps the aggregate invariant safe under concurrent ingests.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Feedback store initialized", zap.String("path", dbPath))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feedback_id TEXT UNIQUE NOT NULL,
		kind TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		score REAL NOT NULL,
		magnitude REAL,
		category TEXT,
		text_sample TEXT,
		timestamp TEXT NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback(timestamp);
	CREATE INDEX IF NOT EXISTS idx_feedback_sentiment ON feedback(sentiment);
	CREATE INDEX IF NOT EXISTS idx_feedback_category ON feedback(category);

	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feedback_id TEXT NOT NULL,
		name TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		relevance REAL,
		FOREIGN KEY (feedback_id) REFERENCES feedback(feedback_id)
	);
	CREATE INDEX IF NOT EXISTS idx_entities_feedback ON entities(feedback_id);

	CREATE TABLE IF NOT EXISTS daily_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE NOT NULL,
		total INTEGER DEFAULT 0,
		positive_count INTEGER DEFAULT 0,
		negative_count INTEGER DEFAULT 0,
		neutral_count INTEGER DEFAULT 0,
		average_score REAL DEFAULT 0,
		last_updated TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Ingest stores a feedback record, its entities and the day's aggregate
// update in one transaction. Returns false when the business id was already
// used; the prior record and all aggregates are left untouched in that case.
func (s *Store) Ingest(record *models.FeedbackRecord) (bool, error) {
	if record.ID == "" {
		return false, fmt.Errorf("feedback record has no id")
	}
	normalize(record)

	// Empty metadata stays NULL rather than an empty JSON object.
	var metadataJSON *string
	if !record.Metadata.IsEmpty() {
		data, err := json.Marshal(record.Metadata)
		if err != nil {
			return false, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		encoded := string(data)
		metadataJSON = &encoded
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO feedback (feedback_id, kind, sentiment, score, magnitude, category, text_sample, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Kind,
		record.Sentiment,
		record.Score,
		record.Magnitude,
		record.Category,
		record.TextSample,
		record.Timestamp,
		metadataJSON,
	)
	if err != nil {
		if isUniqueViolation(err) {
			logger.Warn("Duplicate feedback id rejected", zap.String("feedback_id", record.ID))
			return false, nil
		}
		return false, fmt.Errorf("failed to insert feedback: %w", err)
	}

	for _, entity := range record.Entities {
		_, err = tx.Exec(`
			INSERT INTO entities (feedback_id, name, entity_type, relevance)
			VALUES (?, ?, ?, ?)`,
			record.ID, entity.Name, entity.EntityType, entity.Relevance,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert entity: %w", err)
		}
	}

	if err := updateDailyAggregate(tx, dayOf(record.Timestamp), record.Sentiment, record.Score); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit ingest: %w", err)
	}

	logger.Debug("Feedback stored",
		zap.String("feedback_id", record.ID),
		zap.String("kind", record.Kind),
		zap.String("sentiment", record.Sentiment),
		zap.Int("entities", len(record.Entities)),
	)
	return true, nil
}

// updateDailyAggregate creates or advances the rollup for one day inside the
// caller's transaction. The running mean uses the previous total in the
// numerator: newAvg = (avg*total + score) / (total+1).
func updateDailyAggregate(tx *sql.Tx, date, sentiment string, score float64) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var total, positive, negative, neutral int
	var avg float64
	err := tx.QueryRow(`
		SELECT total, positive_count, negative_count, neutral_count, average_score
		FROM daily_stats WHERE date = ?`, date,
	).Scan(&total, &positive, &negative, &neutral, &avg)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec(`
			INSERT INTO daily_stats (date, total, positive_count, negative_count, neutral_count, average_score, last_updated)
			VALUES (?, 1, ?, ?, ?, ?, ?)`,
			date,
			boolToInt(sentiment == models.SentimentPositive),
			boolToInt(sentiment == models.SentimentNegative),
			boolToInt(sentiment == models.SentimentNeutral),
			score,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to create daily aggregate: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read daily aggregate: %w", err)
	}

	newTotal := total + 1
	newAvg := (avg*float64(total) + score) / float64(newTotal)

	switch sentiment {
	case models.SentimentPositive:
		positive++
	case models.SentimentNegative:
		negative++
	default:
		neutral++
	}

	_, err = tx.Exec(`
		UPDATE daily_stats
		SET total = ?, positive_count = ?, negative_count = ?, neutral_count = ?, average_score = ?, last_updated = ?
		WHERE date = ?`,
		newTotal, positive, negative, neutral, newAvg, now, date,
	)
	if err != nil {
		return fmt.Errorf("failed to update daily aggregate: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes feedback older than the cutoff together with its
// entity rows, then sweeps any stray entities whose parent is gone. All
// steps commit together so dangling entities are never observable. Daily
// aggregates are left intact to preserve long-term trend history.
func (s *Store) PurgeOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first: the entities table references feedback_id.
	_, err = tx.Exec(`
		DELETE FROM entities
		WHERE feedback_id IN (SELECT feedback_id FROM feedback WHERE timestamp < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge entities: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM feedback WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge feedback: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM entities
		WHERE feedback_id NOT IN (SELECT feedback_id FROM feedback)`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep orphan entities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	logger.Info("Old feedback purged", zap.Int64("deleted", deleted), zap.Int("days", days))
	return deleted, nil
}

// ExportAll returns the full dataset ordered newest-first, each record with
// its entities embedded.
func (s *Store) ExportAll() ([]models.FeedbackRecord, error) {
	rows, err := s.db.Query(`
		SELECT feedback_id, kind, sentiment, score, magnitude, category, text_sample, timestamp, metadata
		FROM feedback
		ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	records := make([]models.FeedbackRecord, 0)
	for rows.Next() {
		var r models.FeedbackRecord
		var magnitude sql.NullFloat64
		var category, textSample, metadataJSON sql.NullString

		err := rows.Scan(&r.ID, &r.Kind, &r.Sentiment, &r.Score, &magnitude, &category, &textSample, &r.Timestamp, &metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}

		if magnitude.Valid {
			m := magnitude.Float64
			r.Magnitude = &m
		}
		r.Category = category.String
		r.TextSample = textSample.String
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}

	for i := range records {
		entities, err := s.entitiesFor(records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Entities = entities
	}

	return records, nil
}

func (s *Store) entitiesFor(feedbackID string) ([]models.EntityMention, error) {
	rows, err := s.db.Query(`
		SELECT name, entity_type, relevance
		FROM entities WHERE feedback_id = ?`, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []models.EntityMention
	for rows.Next() {
		var e models.EntityMention
		var relevance sql.NullFloat64
		if err := rows.Scan(&e.Name, &e.EntityType, &relevance); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		e.Relevance = relevance.Float64
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// normalize applies the ingest-boundary conventions: missing timestamp is
// stamped, missing category becomes "General", unknown enums collapse to
// their defaults and the text sample is clipped to 500 characters.
func normalize(record *models.FeedbackRecord) {
	record.Kind = models.NormalizeKind(record.Kind)
	record.Sentiment = models.NormalizeSentiment(record.Sentiment)
	if record.Category == "" {
		record.Category = models.DefaultCategory
	}
	if record.Timestamp == "" {
		record.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if sample := []rune(record.TextSample); len(sample) > models.MaxTextSample {
		record.TextSample = string(sample[:models.MaxTextSample])
	}
}

// dayOf extracts the UTC calendar date from an RFC3339 timestamp.
func dayOf(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
