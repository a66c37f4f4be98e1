package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/types"
)

// ErrClassifierFailed wraps every inference failure. The pipeline treats it
// as fatal for the current cycle.
var ErrClassifierFailed = errors.New("classifier failed")

type scoreKind int

const (
	kindLogits scoreKind = iota
	kindProbabilities
)

// model produces one raw score vector per text, ordered by the backend's
// label map.
type model interface {
	scores(ctx context.Context, text string) ([]float64, scoreKind, error)
}

// Classifier turns backend scores into predictions through a LabelMap fixed
// at construction.
type Classifier struct {
	name   string
	labels LabelMap
	model  model
}

var _ interfaces.Classifier = (*Classifier)(nil)

func newClassifier(name string, labels LabelMap, m model) (*Classifier, error) {
	if err := labels.Validate(); err != nil {
		return nil, fmt.Errorf("classifier %s: %w", name, err)
	}
	return &Classifier{name: name, labels: labels, model: m}, nil
}

func (c *Classifier) Name() string { return c.name }

func (c *Classifier) Labels() LabelMap { return c.labels }

// Predict classifies text. Empty or whitespace-only input returns
// {neutral, 1.0} without invoking the model.
func (c *Classifier) Predict(ctx context.Context, text string) (types.Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return types.Prediction{Sentiment: types.SentimentNeutral, Confidence: 1.0}, nil
	}

	scores, kind, err := c.model.scores(ctx, text)
	if err != nil {
		return types.Prediction{}, fmt.Errorf("%w: %s: %w", ErrClassifierFailed, c.name, err)
	}

	var p types.Prediction
	if kind == kindProbabilities {
		p, err = c.labels.DecodeProbabilities(scores)
	} else {
		p, err = c.labels.Decode(scores)
	}
	if err != nil {
		return types.Prediction{}, fmt.Errorf("%w: %s: %w", ErrClassifierFailed, c.name, err)
	}
	return p, nil
}
