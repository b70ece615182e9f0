package worker

import "context"

// AnalyzeBatchJob runs a previously registered analysis batch to completion.
type AnalyzeBatchJob struct {
	BatchService BatchServiceInterface
	BatchID      string
}

func (j *AnalyzeBatchJob) Name() string { return "analyze_batch" }

func (j *AnalyzeBatchJob) Run(ctx context.Context) error {
	return j.BatchService.RunBatch(ctx, j.BatchID)
}
