package cron

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

type StockReconcileJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository stockReconcileRepo
}

type stockReconcileRepo interface {
	MarkDepletedOutOfStock(ctx context.Context, tx *gorm.DB) (int64, error)
}

// NewStockReconcileJob flips in_stock off for listings whose quantity reached zero.
func NewStockReconcileJob(params StockReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &stockReconcileJob{logg: params.Logger, db: params.DB, repo: params.Repository}, nil
}

type stockReconcileJob struct {
	logg *logger.Logger
	db   txRunner
	repo stockReconcileRepo
}

func (j *stockReconcileJob) Name() string { return "stock-reconcile" }

func (j *stockReconcileJob) Run(ctx context.Context) error {
	var updated int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.MarkDepletedOutOfStock(ctx, tx)
		updated = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("stock reconcile: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_updated", updated), "stock reconcile complete")
	return nil
}
