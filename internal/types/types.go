package types

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// AllSentiments is the closed label set in a stable order.
var AllSentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Ticker is a tracked stock symbol. Symbols are stored upper-cased.
type Ticker struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Symbol    string    `gorm:"size:32;uniqueIndex;not null" json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

// Article is one ingested news item. URL is the global dedup key.
type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TickerID    uint      `gorm:"index;not null" json:"ticker_id"`
	Title       string    `gorm:"not null" json:"title"`
	URL         string    `gorm:"uniqueIndex;not null" json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `gorm:"index" json:"published_at"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassificationText is the text handed to the classifier: content when
// present, otherwise the headline.
func (a Article) ClassificationText() string {
	if a.Content != "" {
		return a.Content
	}
	return a.Title
}

// SentimentRecord is the single classification result for an article.
type SentimentRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ArticleID   uint      `gorm:"uniqueIndex;not null" json:"article_id"`
	Sentiment   Sentiment `gorm:"size:16;not null;index" json:"sentiment"`
	Confidence  float64   `json:"confidence"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (SentimentRecord) TableName() string { return "sentiment_data" }

// ArticleSkip marks an article the noise filter rejected so it is never
// selected for classification again.
type ArticleSkip struct {
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	Reason    string    `json:"reason"`
	SkippedAt time.Time `json:"skipped_at"`
}

// AlertLog records a dispatched alert, used by the cooldown policy.
type AlertLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TickerID      uint      `gorm:"index;not null" json:"ticker_id"`
	Symbol        string    `gorm:"size:32" json:"symbol"`
	NegativeCount int64     `json:"negative_count"`
	Subject       string    `json:"subject"`
	SentAt        time.Time `gorm:"index" json:"sent_at"`
}

func (AlertLog) TableName() string { return "alert_log" }

type Prediction struct {
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
}

// NewsItem is an article as returned by a news source, before persistence.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
}

type NegativeCount struct {
	TickerID uint
	Symbol   string
	Count    int64
}

// SentimentCount is one (ticker, label) bucket of a sentiment summary.
type SentimentCount struct {
	Symbol    string
	Sentiment Sentiment
	Count     int64
}

type IngestStats struct {
	Tickers       int      `json:"tickers"`
	Fetched       int      `json:"fetched"`
	Inserted      int      `json:"inserted"`
	Duplicates    int      `json:"duplicates"`
	Invalid       int      `json:"invalid"`
	FailedTickers []string `json:"failed_tickers,omitempty"`
}

type ClassifyStats struct {
	Selected   int               `json:"selected"`
	Classified int               `json:"classified"`
	Skipped    int               `json:"skipped"`
	ByLabel    map[Sentiment]int `json:"by_label,omitempty"`
}

type Alert struct {
	Symbol        string `json:"symbol"`
	NegativeCount int64  `json:"negative_count"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	Suppressed    bool   `json:"suppressed"`
}

// CycleReport summarizes one ingest, classify, alert pass.
type CycleReport struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Ingest     IngestStats   `json:"ingest"`
	Classify   ClassifyStats `json:"classify"`
	Alerts     []Alert       `json:"alerts"`
	Error      string        `json:"error,omitempty"`
}
