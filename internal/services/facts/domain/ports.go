package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the fact store used by the harvest, linking and article workflows
type Repository interface {
	// InsertFactBatch stores an unassigned batch and its facts
	InsertFactBatch(ctx context.Context, b FactBatch) error
	// UnassignedBatchIDs returns batches without a thread, oldest first
	UnassignedBatchIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	BatchTokens(ctx context.Context, batchID uuid.UUID) (BatchTokens, error)
	// CandidateThreads is ordered by last_fact_added_at desc then thread_id asc
	CandidateThreads(ctx context.Context, q CandidateQuery) ([]EventThread, error)
	// AssignBatch upserts the thread and links the batch in one transaction
	AssignBatch(ctx context.Context, a Assignment) (AssignResult, error)
	TriggeredThreadIDs(ctx context.Context, q TriggerQuery) ([]string, error)
	// FactsInThread returns the unused facts of a thread, oldest first
	FactsInThread(ctx context.Context, threadID string) ([]FactRow, error)
	// InsertArticle reports false when an article with the same id exists
	InsertArticle(ctx context.Context, a Article) (bool, error)
	MarkFactsUsed(ctx context.Context, factIDs []string) (int64, error)
}

// Dedup remembers which article urls were already processed
type Dedup interface {
	// TryMarkProcessed returns false when the url was seen before
	TryMarkProcessed(ctx context.Context, provider, url string) (bool, error)
}
