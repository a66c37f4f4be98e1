// Package digest writes a daily CSV of per-ticker sentiment counts.
package digest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/types"
)

type row struct {
	Symbol   string
	Positive int64
	Negative int64
	Neutral  int64
}

func (r row) total() int64 { return r.Positive + r.Negative + r.Neutral }

type Summarizer struct {
	store     interfaces.SentimentSummarizer
	dir       string
	afterHour int
	loc       *time.Location
}

var _ interfaces.DigestWriter = (*Summarizer)(nil)

// New writes digests to <logDir>/digest. The day boundary and afterHour are
// evaluated in loc (UTC when nil).
func New(store interfaces.SentimentSummarizer, logDir string, afterHour int, loc *time.Location) *Summarizer {
	if logDir == "" {
		logDir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Summarizer{store: store, dir: filepath.Join(logDir, "digest"), afterHour: afterHour, loc: loc}
}

func (s *Summarizer) csvPath(t time.Time) string {
	return filepath.Join(s.dir, t.In(s.loc).Format("2006-01-02")+".csv")
}

// SummarizeDay writes the digest for t's calendar day. It returns an empty
// path and no error when nothing was classified that day.
func (s *Summarizer) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	local := t.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	counts, err := s.store.SentimentSummary(ctx, from, to)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", nil
	}

	aggs := map[string]*row{}
	for _, c := range counts {
		r := aggs[c.Symbol]
		if r == nil {
			r = &row{Symbol: c.Symbol}
			aggs[c.Symbol] = r
		}
		switch c.Sentiment {
		case types.SentimentPositive:
			r.Positive += c.Count
		case types.SentimentNegative:
			r.Negative += c.Count
		case types.SentimentNeutral:
			r.Neutral += c.Count
		}
	}
	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"symbol", "positive", "negative", "neutral", "total", "negative_share"}); err != nil {
		return "", err
	}
	var total row
	for _, k := range keys {
		r := aggs[k]
		if err := w.Write(record(r.Symbol, *r)); err != nil {
			return "", err
		}
		total.Positive += r.Positive
		total.Negative += r.Negative
		total.Neutral += r.Neutral
	}
	if err := w.Write(record("TOTAL", total)); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write digest: %w", err)
	}
	return outPath, nil
}

func record(label string, r row) []string {
	share := 0.0
	if n := r.total(); n > 0 {
		share = float64(r.Negative) / float64(n)
	}
	return []string{
		label,
		strconv.FormatInt(r.Positive, 10),
		strconv.FormatInt(r.Negative, 10),
		strconv.FormatInt(r.Neutral, 10),
		strconv.FormatInt(r.total(), 10),
		fmt.Sprintf("%.4f", share),
	}
}

// ShouldRunNow reports whether the digest for now's day is due: the
// configured hour has passed and the file does not exist yet.
func (s *Summarizer) ShouldRunNow(now time.Time) (bool, string) {
	local := now.In(s.loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), s.afterHour, 0, 0, 0, s.loc)
	outPath := s.csvPath(now)
	if !local.Before(cutoff) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}

// WriteIfDue writes the digest for now's day only when ShouldRunNow allows
// it, so an existing file is never overwritten. It returns "" when nothing
// was written.
func WriteIfDue(ctx context.Context, w interfaces.DigestWriter, now time.Time) (string, error) {
	if ok, _ := w.ShouldRunNow(now); !ok {
		return "", nil
	}
	return w.SummarizeDay(ctx, now)
}
