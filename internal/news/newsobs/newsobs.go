package newsobs

import (
	"context"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

type observableSource struct {
	source interfaces.NewsSource
}

var _ interfaces.NewsSource = (*observableSource)(nil)

// Wrap wraps a news source with observability middleware
func Wrap(source interfaces.NewsSource) interfaces.NewsSource {
	return &observableSource{source: source}
}

func (o *observableSource) Name() string { return o.source.Name() }

func (o *observableSource) FetchArticles(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	timer := logger.StartOperation(ctx, "news.FetchArticles",
		"source", o.source.Name(),
		"query", query,
		"limit", limit,
	)
	ctx = timer.GetContext()

	items, err := o.source.FetchArticles(ctx, query, limit)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}
	timer.End("count", len(items))

	logger.InfoSkip(ctx, 1, "Articles fetched",
		"source", o.source.Name(),
		"query", query,
		"count", len(items),
	)
	return items, nil
}
