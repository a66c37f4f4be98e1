package classifierobs

import (
	"context"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

// observableClassifier wraps a Classifier with logging and tracing
type observableClassifier struct {
	classifier interfaces.Classifier
}

var _ interfaces.Classifier = (*observableClassifier)(nil)

func Wrap(classifier interfaces.Classifier) interfaces.Classifier {
	return &observableClassifier{
		classifier: classifier,
	}
}

func (oc *observableClassifier) Predict(ctx context.Context, text string) (types.Prediction, error) {
	timer := logger.StartOperation(ctx, "classifier.Predict", "chars", len(text))

	p, err := oc.classifier.Predict(timer.GetContext(), text)
	if err != nil {
		timer.EndWithError(err)
		return types.Prediction{}, err
	}

	timer.End(
		"sentiment", string(p.Sentiment),
		"confidence", p.Confidence,
	)
	return p, nil
}
