package interfaces

import (
	"context"
	"time"

	"sentiment-lens/internal/types"
)

// Store is the persistence surface the pipeline depends on.
type Store interface {
	ListTickers(ctx context.Context) ([]types.Ticker, error)

	ArticleExists(ctx context.Context, url string) (bool, error)
	// InsertArticle reports false when a row with the same URL already exists.
	InsertArticle(ctx context.Context, article *types.Article) (inserted bool, err error)

	UnclassifiedArticles(ctx context.Context) ([]types.Article, error)
	InsertSentiment(ctx context.Context, rec *types.SentimentRecord) error
	MarkSkipped(ctx context.Context, articleID uint, reason string) error

	NegativeCountsSince(ctx context.Context, since time.Time, minCount int64) ([]types.NegativeCount, error)
	LastAlertAt(ctx context.Context, tickerID uint) (time.Time, bool, error)
	RecordAlert(ctx context.Context, rec *types.AlertLog) error
}

type SentimentSummarizer interface {
	SentimentSummary(ctx context.Context, from, to time.Time) ([]types.SentimentCount, error)
}
