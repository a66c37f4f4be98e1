package interfaces

import (
	"context"

	"sentiment-lens/internal/types"
)

// Cycle runs one full ingest, classify, alert pass.
type Cycle interface {
	RunCycle(ctx context.Context) (*types.CycleReport, error)
}
