package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vcf-ingest/internal/core/domain"
	"github.com/custodia-labs/vcf-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/vcf-ingest/internal/logger"
)

// runTracker records one run in the registry. Registry failures are
// logged and never fail the run itself.
type runTracker struct {
	store  driven.RunStore
	record domain.RunRecord
}

func startRun(ctx context.Context, store driven.RunStore, kind domain.RunKind, snapshot, project string) *runTracker {
	t := &runTracker{
		store: store,
		record: domain.RunRecord{
			ID:        uuid.New().String(),
			Kind:      kind,
			Snapshot:  snapshot,
			Project:   project,
			Status:    domain.RunRunning,
			StartedAt: time.Now().UTC(),
		},
	}
	t.save(ctx)
	return t
}

func (t *runTracker) finish(ctx context.Context, items int, resultPath string, err error) {
	t.record.Items = items
	t.record.ResultPath = resultPath
	t.record.FinishedAt = time.Now().UTC()
	t.record.Status = domain.RunSucceeded
	if err != nil {
		t.record.Status = domain.RunFailed
		t.record.Error = err.Error()
	}
	// The caller's context may already be cancelled; the record is still wanted.
	t.save(context.WithoutCancel(ctx))
}

func (t *runTracker) save(ctx context.Context) {
	if t.store == nil {
		return
	}
	if err := t.store.Save(ctx, t.record); err != nil {
		logger.Warn("Could not record %s run %s: %v", t.record.Kind, t.record.ID, err)
	}
}
