package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const defaultOutboxRetention = 14 * 24 * time.Hour

type publishedEventPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configures the outbox purge.
type OutboxRetentionJobParams struct {
	Logger    *logger.Logger
	Outbox    publishedEventPurger
	Retention time.Duration
}

// NewOutboxRetentionJob removes relayed outbox rows older than Retention.
// Unpublished and parked rows are kept for inspection.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		outbox:    params.Outbox,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	outbox    publishedEventPurger
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox_retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.outbox.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge published outbox rows: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox retention complete")
	return nil
}
