package cron

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/logger"
)

type fakeStockRepo struct {
	calls int
	err   error
}

func (f *fakeStockRepo) MarkDepletedOutOfStock(context.Context, *gorm.DB) (int64, error) {
	f.calls++
	return 2, f.err
}

func TestStockReconcileJobRuns(t *testing.T) {
	repo := &fakeStockRepo{}
	job, err := NewStockReconcileJob(StockReconcileJobParams{Logger: logger.Nop(), DB: outboxRetentionTxRunner{}, Repository: repo})
	if err != nil {
		t.Fatalf("NewStockReconcileJob: %v", err)
	}
	if job.Name() != "stock-reconcile" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected one call, got %d", repo.calls)
	}

	repo.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
