package storage

import (
	"context"

	"P3DrumMachine/model"

	"github.com/google/uuid"
)

// SummaryIndex is a sidecar store of session summaries that lets listings skip
// decoding every session file. The session files stay the source of truth;
// an index that disagrees with them is rebuilt from a full scan.
type SummaryIndex interface {
	Upsert(ctx context.Context, summary model.SessionSummary) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.SessionSummary, error)
	// Replace swaps the whole index content for summaries.
	Replace(ctx context.Context, summaries []model.SessionSummary) error
}
