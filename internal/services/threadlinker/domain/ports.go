// Package domain defines the storage port the thread linker works against
package domain

import (
	"context"

	"github.com/google/uuid"

	factsdom "newslens/internal/services/facts/domain"
)

// ThreadStore is the slice of the fact repository used for linking
type ThreadStore interface {
	UnassignedBatchIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	BatchTokens(ctx context.Context, batchID uuid.UUID) (factsdom.BatchTokens, error)
	CandidateThreads(ctx context.Context, q factsdom.CandidateQuery) ([]factsdom.EventThread, error)
	AssignBatch(ctx context.Context, a factsdom.Assignment) (factsdom.AssignResult, error)
}
