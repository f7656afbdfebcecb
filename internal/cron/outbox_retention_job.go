package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

const (
	outboxRetentionDays = 14
	outboxMinAttempts   = 10
	dlqRetentionDays    = 90
	day                 = 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// DLQ is optional; when set, dead letters older than DLQRetention days
	// are purged in the same transaction.
	DLQ          dlqRetentionRepo
	Retention    int
	DLQRetention int
	MinAttempts  int
}

// NewOutboxRetentionJob prunes delivered outbox rows, rows that exhausted
// their attempts, and old dead letters.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		dlq:          params.DLQ,
		retention:    orDefault(params.Retention, outboxRetentionDays),
		dlqRetention: orDefault(params.DLQRetention, dlqRetentionDays),
		minAttempts:  orDefault(params.MinAttempts, outboxMinAttempts),
		now:          time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         outboxRetentionRepo
	dlq          dlqRetentionRepo
	retention    int
	dlqRetention int
	minAttempts  int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.retention) * day)
	dlqCutoff := now.Add(-time.Duration(j.dlqRetention) * day)

	var events, deadLetters int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		if events, err = j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts); err != nil {
			return err
		}
		if j.dlq != nil {
			deadLetters, err = j.dlq.DeleteFailedBefore(ctx, tx, dlqCutoff)
		}
		return err
	})
	if err != nil {
		return errors.Join(errors.New("outbox retention"), err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":              cutoff,
		"events_deleted":      events,
		"dead_letters_purged": deadLetters,
	}), "outbox retention complete")
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
