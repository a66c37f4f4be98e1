package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/types"
)

var (
	ErrTickerExists  = errors.New("ticker already tracked")
	ErrInvalidSymbol = errors.New("invalid ticker symbol")
)

// Store persists tickers, articles and sentiment results. All timestamps are
// written in UTC so range predicates compare correctly on SQLite.
type Store struct {
	db *gorm.DB
}

var (
	_ interfaces.Store               = (*Store)(nil)
	_ interfaces.SentimentSummarizer = (*Store)(nil)
)

// Open connects to the database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&types.Ticker{},
		&types.Article{},
		&types.SentimentRecord{},
		&types.ArticleSkip{},
		&types.AlertLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AddTicker starts tracking symbol. Symbols are upper-cased; adding a symbol
// twice returns ErrTickerExists.
func (s *Store) AddTicker(ctx context.Context, symbol string) (*types.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || strings.ContainsAny(symbol, " \t\n") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}

	t := &types.Ticker{Symbol: symbol}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "symbol"}}, DoNothing: true}).
		Create(t)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to add ticker %s: %w", symbol, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerExists, symbol)
	}
	return t, nil
}

func (s *Store) ListTickers(ctx context.Context) ([]types.Ticker, error) {
	var tickers []types.Ticker
	if err := s.db.WithContext(ctx).Order("symbol").Find(&tickers).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	return tickers, nil
}

func (s *Store) ArticleExists(ctx context.Context, url string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&types.Article{}).Where("url = ?", url).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check article %s: %w", url, err)
	}
	return n > 0, nil
}

// InsertArticle inserts a unless an article with the same URL exists.
func (s *Store) InsertArticle(ctx context.Context, a *types.Article) (bool, error) {
	a.PublishedAt = a.PublishedAt.UTC()
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url"}}, DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert article %s: %w", a.URL, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UnclassifiedArticles returns articles that have neither a sentiment record
// nor a skip mark, ordered by id.
func (s *Store) UnclassifiedArticles(ctx context.Context) ([]types.Article, error) {
	var articles []types.Article
	err := s.db.WithContext(ctx).
		Model(&types.Article{}).
		Select("articles.*").
		Joins("LEFT JOIN sentiment_data s ON s.article_id = articles.id").
		Joins("LEFT JOIN article_skips k ON k.article_id = articles.id").
		Where("s.id IS NULL AND k.article_id IS NULL").
		Order("articles.id").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to select unclassified articles: %w", err)
	}
	return articles, nil
}

func (s *Store) InsertSentiment(ctx context.Context, rec *types.SentimentRecord) error {
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}
	rec.ProcessedAt = rec.ProcessedAt.UTC()
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert sentiment for article %d: %w", rec.ArticleID, err)
	}
	return nil
}

func (s *Store) MarkSkipped(ctx context.Context, articleID uint, reason string) error {
	skip := &types.ArticleSkip{ArticleID: articleID, Reason: reason, SkippedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(skip).Error
	if err != nil {
		return fmt.Errorf("failed to mark article %d skipped: %w", articleID, err)
	}
	return nil
}

// NegativeCountsSince counts negative records per ticker for articles
// published at or after since. Tickers below minCount are omitted.
func (s *Store) NegativeCountsSince(ctx context.Context, since time.Time, minCount int64) ([]types.NegativeCount, error) {
	if minCount < 1 {
		minCount = 1
	}
	var out []types.NegativeCount
	err := s.db.WithContext(ctx).
		Table("sentiment_data AS s").
		Select("t.id AS ticker_id, t.symbol AS symbol, COUNT(s.id) AS count").
		Joins("JOIN articles a ON a.id = s.article_id").
		Joins("JOIN tickers t ON t.id = a.ticker_id").
		Where("s.sentiment = ? AND a.published_at >= ?", types.SentimentNegative, since.UTC()).
		Group("t.id, t.symbol").
		Having("COUNT(s.id) >= ?", minCount).
		Order("t.symbol").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count negative sentiment: %w", err)
	}
	return out, nil
}

// LastAlertAt returns when an alert was last recorded for the ticker.
func (s *Store) LastAlertAt(ctx context.Context, tickerID uint) (time.Time, bool, error) {
	var logs []types.AlertLog
	err := s.db.WithContext(ctx).
		Where("ticker_id = ?", tickerID).
		Order("sent_at DESC").
		Limit(1).
		Find(&logs).Error
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read alert log for ticker %d: %w", tickerID, err)
	}
	if len(logs) == 0 {
		return time.Time{}, false, nil
	}
	return logs[0].SentAt, true, nil
}

func (s *Store) RecordAlert(ctx context.Context, rec *types.AlertLog) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}
	rec.SentAt = rec.SentAt.UTC()
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record alert for %s: %w", rec.Symbol, err)
	}
	return nil
}

// SentimentSummary counts records per ticker and label processed in [from, to).
func (s *Store) SentimentSummary(ctx context.Context, from, to time.Time) ([]types.SentimentCount, error) {
	var out []types.SentimentCount
	err := s.db.WithContext(ctx).
		Table("sentiment_data AS s").
		Select("t.symbol AS symbol, s.sentiment AS sentiment, COUNT(s.id) AS count").
		Joins("JOIN articles a ON a.id = s.article_id").
		Joins("JOIN tickers t ON t.id = a.ticker_id").
		Where("s.processed_at >= ? AND s.processed_at < ?", from.UTC(), to.UTC()).
		Group("t.symbol, s.sentiment").
		Order("t.symbol, s.sentiment").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sentiment: %w", err)
	}
	return out, nil
}
