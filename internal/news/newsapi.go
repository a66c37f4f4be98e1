package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentiment-lens/internal/api"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/types"
)

const DefaultNewsAPIURL = "https://newsapi.org/v2"

// NewsAPIResponse is the body of GET /v2/everything.
type NewsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Content     string    `json:"content"`
	} `json:"articles"`
}

type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	Language string
	Lookback time.Duration
	Timeout  time.Duration
}

// NewsAPI queries the newsapi.org "everything" endpoint.
type NewsAPI struct {
	client   *api.Client
	language string
	lookback time.Duration
	limiter  *RateLimiter
	now      func() time.Time
}

var _ interfaces.NewsSource = (*NewsAPI)(nil)

func NewNewsAPI(cfg NewsAPIConfig, limiter *RateLimiter) (*NewsAPI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("NEWS_API_KEY missing")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNewsAPIURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &NewsAPI{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithHeader("X-Api-Key", cfg.APIKey),
			api.WithLogging(true),
		),
		language: cfg.Language,
		lookback: cfg.Lookback,
		limiter:  limiter,
		now:      time.Now,
	}, nil
}

func (n *NewsAPI) Name() string { return "newsapi" }

// FetchArticles returns up to limit articles matching query, newest first.
// Content falls back to the description when the full text is missing.
func (n *NewsAPI) FetchArticles(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":        {query},
		"language": {n.language},
		"sortBy":   {"publishedAt"},
		"pageSize": {strconv.Itoa(limit)},
	}
	if n.lookback > 0 {
		params.Set("from", n.now().Add(-n.lookback).UTC().Format("2006-01-02T15:04:05"))
	}

	resp, err := n.client.GET(ctx, "/everything", params)
	if err != nil {
		return nil, fmt.Errorf("newsapi request for %s failed: %w", query, err)
	}

	var body NewsAPIResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, err
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q: %s %s", body.Status, body.Code, body.Message)
	}

	items := make([]types.NewsItem, 0, len(body.Articles))
	for _, a := range body.Articles {
		// withdrawn articles are returned as placeholders
		if a.Title == "[Removed]" {
			continue
		}
		content := a.Content
		if content == "" {
			content = a.Description
		}
		items = append(items, types.NewsItem{
			Title:       strings.TrimSpace(a.Title),
			URL:         strings.TrimSpace(a.URL),
			Source:      a.Source.Name,
			Description: a.Description,
			Content:     content,
			PublishedAt: a.PublishedAt,
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}
