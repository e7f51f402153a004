package database

import (
	"time"

	"github.com/lysyi3m/topic-agent/app/scoring"
)

type Run struct {
	ID                string
	TopicID           string
	Mode              string
	StartedAt         time.Time
	FinishedAt        time.Time
	Replies           int
	Interrupted       bool
	AverageTitleWords float64
	IntersectionMin   int
	RecordCount       int
	ArchivePath       string
}

type RunDetail struct {
	Run
	Records []*scoring.AnalysisRecord
}

// Engagement is one reply recorded in history, live or dry run.
type Engagement struct {
	RunID            string
	TopicID          string
	ItemID           string
	Title            string
	Permalink        string
	Outcome          string
	UtteranceContent string
	EngagedAt        time.Time
}

type Stats struct {
	Runs      int
	Records   int
	Replies   int
	LastRunAt *time.Time
}
