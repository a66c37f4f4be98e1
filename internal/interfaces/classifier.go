package interfaces

import (
	"context"

	"sentiment-lens/internal/types"
)

// Classifier maps free text to a sentiment label and confidence.
// Empty or whitespace-only text yields {neutral, 1.0}.
type Classifier interface {
	Predict(ctx context.Context, text string) (types.Prediction, error)
}
