package news

import (
	"fmt"

	"sentiment-lens/internal/config"
	"sentiment-lens/internal/interfaces"
)

// New builds the configured news source, decorated with content enrichment
// when enabled.
func New(cfg *config.Config, secrets config.Secrets) (interfaces.NewsSource, error) {
	limiter := NewRateLimiter(1, cfg.Source.MinInterval)

	var src interfaces.NewsSource
	switch cfg.Source.Provider {
	case "newsapi":
		baseURL := cfg.Source.BaseURL
		if baseURL == "" {
			baseURL = DefaultNewsAPIURL
		}
		n, err := NewNewsAPI(NewsAPIConfig{
			APIKey:   secrets.NewsAPIKey,
			BaseURL:  baseURL,
			Language: cfg.Source.Language,
			Lookback: cfg.Source.Lookback,
			Timeout:  cfg.Source.Timeout,
		}, limiter)
		if err != nil {
			return nil, err
		}
		src = n
	case "rss":
		src = NewRSS(cfg.Source.FeedURLTemplate, cfg.Source.Timeout, limiter)
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.Source.Provider)
	}

	if cfg.Source.EnrichContent {
		src = NewContentEnricher(src, cfg.Source.Timeout, NewRateLimiter(1, cfg.Source.MinInterval))
	}
	return src, nil
}
