package interfaces

import (
	"context"

	"sentiment-lens/internal/types"
)

// NewsSource fetches recent articles matching a free-text query, newest first.
type NewsSource interface {
	Name() string
	FetchArticles(ctx context.Context, query string, limit int) ([]types.NewsItem, error)
}
