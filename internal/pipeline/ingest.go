package pipeline

import (
	"context"
	"strings"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

// Ingestor fetches recent news for every tracked ticker and stores articles
// whose URL has not been seen before.
type Ingestor struct {
	store    interfaces.Store
	source   interfaces.NewsSource
	pageSize int
}

func NewIngestor(store interfaces.Store, source interfaces.NewsSource, pageSize int) *Ingestor {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Ingestor{store: store, source: source, pageSize: pageSize}
}

// Run ingests all tickers. A fetch failure for one ticker is logged and
// skipped; only failing to list tickers is returned as an error.
func (in *Ingestor) Run(ctx context.Context) (types.IngestStats, error) {
	var stats types.IngestStats

	tickers, err := in.store.ListTickers(ctx)
	if err != nil {
		return stats, err
	}
	stats.Tickers = len(tickers)

	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		items, err := in.source.FetchArticles(ctx, t.Symbol, in.pageSize)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to fetch news for ticker", err,
				"symbol", t.Symbol,
				"source", in.source.Name(),
			)
			stats.FailedTickers = append(stats.FailedTickers, t.Symbol)
			continue
		}
		stats.Fetched += len(items)

		in.ingestTicker(ctx, t, items, &stats)
	}
	return stats, nil
}

func (in *Ingestor) ingestTicker(ctx context.Context, t types.Ticker, items []types.NewsItem, stats *types.IngestStats) {
	inserted := 0
	for _, item := range items {
		url := strings.TrimSpace(item.URL)
		title := strings.TrimSpace(item.Title)
		if url == "" || title == "" {
			stats.Invalid++
			continue
		}

		exists, err := in.store.ArticleExists(ctx, url)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to check article", err, "symbol", t.Symbol, "url", url)
			continue
		}
		if exists {
			stats.Duplicates++
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		ok, err := in.store.InsertArticle(ctx, &types.Article{
			TickerID:    t.ID,
			Title:       title,
			URL:         url,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
			Content:     content,
		})
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to insert article", err, "symbol", t.Symbol, "url", url)
			continue
		}
		if !ok {
			// another ticker or a concurrent run stored this URL first
			logger.Warn(ctx, "Article already stored", "symbol", t.Symbol, "url", url)
			stats.Duplicates++
			continue
		}
		inserted++
	}
	stats.Inserted += inserted

	logger.Info(ctx, "Ticker ingested",
		"symbol", t.Symbol,
		"fetched", len(items),
		"inserted", inserted,
	)
}
