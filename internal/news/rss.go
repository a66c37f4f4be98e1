package news

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/types"
)

// DefaultFeedTemplate searches Google News; {query} is replaced by the
// escaped ticker symbol.
const DefaultFeedTemplate = "https://news.google.com/rss/search?q={query}+stock&hl=en-US&gl=US&ceid=US:en"

// RSS fetches a query-templated RSS or Atom feed.
type RSS struct {
	template string
	timeout  time.Duration
	parser   *gofeed.Parser
	limiter  *RateLimiter
}

var _ interfaces.NewsSource = (*RSS)(nil)

func NewRSS(template string, timeout time.Duration, limiter *RateLimiter) *RSS {
	if template == "" {
		template = DefaultFeedTemplate
	}
	parser := gofeed.NewParser()
	parser.UserAgent = "sentiment-lens/1.0"
	return &RSS{template: template, timeout: timeout, parser: parser, limiter: limiter}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) FetchArticles(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feedURL := strings.ReplaceAll(r.template, "{query}", url.QueryEscape(query))
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS for %s: %w", query, err)
	}

	items := make([]types.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := types.NewsItem{
			Title:       strings.TrimSpace(it.Title),
			URL:         strings.TrimSpace(it.Link),
			Source:      feed.Title,
			Description: cleanHTML(it.Description),
			Content:     cleanHTML(it.Content),
		}
		switch {
		case it.PublishedParsed != nil:
			item.PublishedAt = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			item.PublishedAt = *it.UpdatedParsed
		default:
			item.PublishedAt = time.Now()
		}
		if item.Content == "" {
			item.Content = item.Description
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
