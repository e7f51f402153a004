package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lysyi3m/topic-agent/app/record"
	"github.com/lysyi3m/topic-agent/app/scoring"
)

// RunRepository handles database operations for runs and their analysis records
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores a run and its records, replacing a previously saved run with the same ID.
func (r *RunRepository) SaveRun(ctx context.Context, run *record.Run, archivePath string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, topic_id, mode, started_at, finished_at, replies, interrupted,
		                  average_title_words, intersection_min, record_count, archive_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			topic_id = excluded.topic_id,
			mode = excluded.mode,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			replies = excluded.replies,
			interrupted = excluded.interrupted,
			average_title_words = excluded.average_title_words,
			intersection_min = excluded.intersection_min,
			record_count = excluded.record_count,
			archive_path = excluded.archive_path
	`, run.ID, run.TopicID, run.Mode, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Replies,
		run.Interrupted, run.AverageTitleWords, run.IntersectionMin, len(run.Records), archivePath)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_records WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear analysis records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_records (run_id, position, item_id, title, permalink, outcome,
		                              utterance_content, engagement_time, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare analysis record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode analysis record %s: %w", rec.ItemID, err)
		}

		var engagedAt sql.NullString
		if rec.EngagementTime != nil {
			engagedAt = sql.NullString{String: formatTime(*rec.EngagementTime), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, run.ID, i, rec.ItemID, rec.Title, rec.Permalink, rec.Outcome,
			rec.UtteranceContent, engagedAt, string(data)); err != nil {
			return fmt.Errorf("failed to insert analysis record %s: %w", rec.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

const runColumns = `id, topic_id, mode, started_at, finished_at, replies, interrupted,
	average_title_words, intersection_min, record_count, archive_path`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var run Run
	var startedAt, finishedAt string
	err := row.Scan(&run.ID, &run.TopicID, &run.Mode, &startedAt, &finishedAt, &run.Replies, &run.Interrupted,
		&run.AverageTitleWords, &run.IntersectionMin, &run.RecordCount, &run.ArchivePath)
	if err != nil {
		return Run{}, err
	}

	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finishedAt); err != nil {
		return Run{}, err
	}
	return run, nil
}

// GetRun returns a run with its records, or nil when it does not exist.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*RunDetail, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM analysis_records WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis records: %w", err)
	}
	defer rows.Close()

	detail := &RunDetail{Run: run, Records: []*scoring.AnalysisRecord{}}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		var rec scoring.AnalysisRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode analysis record: %w", err)
		}
		detail.Records = append(detail.Records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis records: %w", err)
	}

	return detail, nil
}

// GetRuns returns the most recent runs of a topic, newest first.
func (r *RunRepository) GetRuns(ctx context.Context, topicID string, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE topic_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

// GetEngagements returns the most recent replies made for a topic, newest first.
func (r *RunRepository) GetEngagements(ctx context.Context, topicID string, limit int) ([]Engagement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.run_id, r.topic_id, a.item_id, a.title, a.permalink, a.outcome, a.utterance_content, a.engagement_time
		FROM analysis_records a
		JOIN runs r ON r.id = a.run_id
		WHERE r.topic_id = ? AND a.engagement_time IS NOT NULL
		ORDER BY a.engagement_time DESC
		LIMIT ?
	`, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get engagements: %w", err)
	}
	defer rows.Close()

	engagements := []Engagement{}
	for rows.Next() {
		var e Engagement
		var engagedAt string
		if err := rows.Scan(&e.RunID, &e.TopicID, &e.ItemID, &e.Title, &e.Permalink, &e.Outcome,
			&e.UtteranceContent, &engagedAt); err != nil {
			return nil, fmt.Errorf("failed to scan engagement row: %w", err)
		}
		if e.EngagedAt, err = parseTime(engagedAt); err != nil {
			return nil, err
		}
		engagements = append(engagements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engagement rows: %w", err)
	}

	return engagements, nil
}

// GetStats summarizes history for one topic, or all topics when topicID is empty.
func (r *RunRepository) GetStats(ctx context.Context, topicID string) (Stats, error) {
	var stats Stats
	var lastRun sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(record_count), 0), COALESCE(SUM(replies), 0), MAX(started_at)
		FROM runs
		WHERE ? = '' OR topic_id = ?
	`, topicID, topicID).Scan(&stats.Runs, &stats.Records, &stats.Replies, &lastRun)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get run stats: %w", err)
	}

	if lastRun.Valid {
		t, err := parseTime(lastRun.String)
		if err != nil {
			return Stats{}, err
		}
		stats.LastRunAt = &t
	}

	return stats, nil
}
