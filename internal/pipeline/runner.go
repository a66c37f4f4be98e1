package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"sentiment-lens/internal/classifier"
	"sentiment-lens/internal/filter"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

// Runner classifies every article that has no sentiment record yet. It is
// the only writer of sentiment records.
type Runner struct {
	store      interfaces.Store
	classifier interfaces.Classifier
	noise      *filter.NoiseFilter
}

func NewRunner(store interfaces.Store, c interfaces.Classifier, noise *filter.NoiseFilter) *Runner {
	if noise == nil {
		noise = filter.NewNoiseFilter(nil)
	}
	return &Runner{store: store, classifier: c, noise: noise}
}

// Run processes pending articles in id order. Noisy headlines are marked
// skipped. A classifier failure aborts the run and is returned wrapped in
// classifier.ErrClassifierFailed.
func (r *Runner) Run(ctx context.Context) (types.ClassifyStats, error) {
	stats := types.ClassifyStats{ByLabel: map[types.Sentiment]int{}}

	articles, err := r.store.UnclassifiedArticles(ctx)
	if err != nil {
		return stats, err
	}
	stats.Selected = len(articles)

	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if kw, noisy := r.noise.Match(a.Title); noisy {
			if err := r.store.MarkSkipped(ctx, a.ID, "noise: "+kw); err != nil {
				return stats, err
			}
			logger.Debug(ctx, "Skipping noisy article", "article_id", a.ID, "keyword", kw)
			stats.Skipped++
			continue
		}

		p, err := r.classifier.Predict(ctx, a.ClassificationText())
		if err != nil {
			return stats, classificationError(a.ID, err)
		}
		if err := validatePrediction(p); err != nil {
			return stats, classificationError(a.ID, err)
		}

		if err := r.store.InsertSentiment(ctx, &types.SentimentRecord{
			ArticleID:  a.ID,
			Sentiment:  p.Sentiment,
			Confidence: p.Confidence,
		}); err != nil {
			return stats, err
		}

		logger.Classification(ctx, a.ID, string(p.Sentiment), p.Confidence, "ticker_id", a.TickerID)
		stats.Classified++
		stats.ByLabel[p.Sentiment]++
	}
	return stats, nil
}

func classificationError(articleID uint, err error) error {
	if errors.Is(err, classifier.ErrClassifierFailed) {
		return fmt.Errorf("article %d: %w", articleID, err)
	}
	return fmt.Errorf("%w: article %d: %w", classifier.ErrClassifierFailed, articleID, err)
}

func validatePrediction(p types.Prediction) error {
	if !p.Sentiment.Valid() {
		return fmt.Errorf("invalid label %q", p.Sentiment)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", p.Confidence)
	}
	return nil
}
