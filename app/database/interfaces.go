package database

import (
	"context"

	"github.com/lysyi3m/topic-agent/app/record"
)

type RunHistory interface {
	SaveRun(ctx context.Context, run *record.Run, archivePath string) error

	GetRun(ctx context.Context, runID string) (*RunDetail, error)
	GetRuns(ctx context.Context, topicID string, limit int) ([]Run, error)
	GetEngagements(ctx context.Context, topicID string, limit int) ([]Engagement, error)
	GetStats(ctx context.Context, topicID string) (Stats, error)
}

var _ RunHistory = (*RunRepository)(nil)
var _ record.History = (*RunRepository)(nil)
