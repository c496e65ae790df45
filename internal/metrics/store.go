package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/database"
	"github.com/bradenpan/whisk-ai-prototype/internal/shared"
)

// ExecutionMetric records metadata for a single model call.
type ExecutionMetric struct {
	Task             string
	Model            string
	Outcome          shared.Outcome
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("metrics_store")}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	outcome := m.Outcome
	if outcome == "" {
		outcome = shared.OutcomeOK
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO execution_metrics (task, model, outcome, prompt_tokens, completion_tokens, latency_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Task, m.Model, string(outcome), m.PromptTokens, m.CompletionTokens, m.LatencyMS,
		ts.UTC().Format(database.TimeLayout),
	)
	return err
}

// ObserveCall records a call; write failures are logged and dropped.
func (s *Store) ObserveCall(meta shared.CallMeta) {
	if err := s.Record(context.Background(), MapCall(meta)); err != nil {
		s.logger.Warn("failed to record execution metric", zap.String("task", meta.Task), zap.Error(err))
	}
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
	Degraded        int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(database.TimeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(timestamp) AS day,
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome != 'ok' THEN 1 ELSE 0 END), 0)
		   FROM execution_metrics
		  WHERE timestamp >= ?
		  GROUP BY day
		  ORDER BY day DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u   DailyUsage
			day sql.NullString
		)
		if err := rows.Scan(&day, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution, &u.Degraded); err != nil {
			return nil, err
		}
		u.Date = "Unknown"
		if day.Valid {
			u.Date = day.String
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(database.TimeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM execution_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MapCall converts call metadata into an ExecutionMetric.
func MapCall(meta shared.CallMeta) ExecutionMetric {
	return ExecutionMetric{
		Task:             meta.Task,
		Model:            meta.Usage.Model,
		Outcome:          meta.Outcome,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
