// Package record archives run records as JSON files and mirrors them into run history.
package record

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/topic-agent/app/scoring"
)

const TimestampLayout = "2006-01-02_15-04-05"

// Run is the ordered set of analysis records of one pipeline pass, plus a summary.
type Run struct {
	ID                string                    `json:"id"`
	TopicID           string                    `json:"topic_id"`
	Mode              string                    `json:"mode"`
	StartedAt         time.Time                 `json:"started_at"`
	FinishedAt        time.Time                 `json:"finished_at"`
	Replies           int                       `json:"replies"`
	Interrupted       bool                      `json:"interrupted"`
	AverageTitleWords float64                   `json:"average_title_words"`
	IntersectionMin   int                       `json:"intersection_min,omitempty"`
	Records           []*scoring.AnalysisRecord `json:"records"`
}

// History stores archived runs for later browsing.
type History interface {
	SaveRun(ctx context.Context, run *Run, archivePath string) error
}

type Recorder struct {
	archiveDir string
	history    History
}

// NewRecorder writes archives under archiveDir. history may be nil.
func NewRecorder(archiveDir string, history History) *Recorder {
	return &Recorder{
		archiveDir: archiveDir,
		history:    history,
	}
}

// Path returns <archive_dir>/<topic_id>/<YYYY-MM-DD_HH-MM-SS>.json.
func (r *Recorder) Path(topicID string, runAt time.Time) string {
	return filepath.Join(r.archiveDir, topicID, runAt.Format(TimestampLayout)+".json")
}

// Archive writes the run atomically, replacing any archive with the same topic and
// timestamp. A history failure is logged; the file archive is authoritative.
func (r *Recorder) Archive(ctx context.Context, run *Run, topicID string, runAt time.Time) (string, error) {
	path := r.Path(topicID, runAt)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".run-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}

	slog.Info("Run record archived", "topic", topicID, "path", path, "records", len(run.Records))

	if r.history != nil {
		if err := r.history.SaveRun(ctx, run, path); err != nil {
			slog.Error("Failed to save run history", "topic", topicID, "run_id", run.ID, "error", err)
		}
	}

	return path, nil
}

// Load reads an archived run back.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", path, err)
	}

	return &run, nil
}
