package worker

import "context"

// BatchServiceInterface defines the interface for running analysis batches.
// This avoids import cycles by not importing the services package.
type BatchServiceInterface interface {
	RunBatch(ctx context.Context, batchID string) error
}
