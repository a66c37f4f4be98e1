package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-lens/internal/classifier"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/filter"
	"sentiment-lens/internal/store"
	"sentiment-lens/internal/types"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	items map[string][]types.NewsItem
	fail  map[string]error
	calls []string
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchArticles(_ context.Context, query string, limit int) ([]types.NewsItem, error) {
	f.calls = append(f.calls, query)
	if err := f.fail[query]; err != nil {
		return nil, err
	}
	items := f.items[query]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// keywordClassifier labels text negative when it contains "falls", positive
// when it contains "beats" and neutral otherwise.
type keywordClassifier struct {
	err   error
	calls int
}

func (k *keywordClassifier) Predict(_ context.Context, text string) (types.Prediction, error) {
	k.calls++
	if k.err != nil {
		return types.Prediction{}, k.err
	}
	switch {
	case strings.Contains(text, "falls"):
		return types.Prediction{Sentiment: types.SentimentNegative, Confidence: 0.9}, nil
	case strings.Contains(text, "beats"):
		return types.Prediction{Sentiment: types.SentimentPositive, Confidence: 0.8}, nil
	}
	return types.Prediction{Sentiment: types.SentimentNeutral, Confidence: 0.6}, nil
}

type sentAlert struct{ subject, body string }

type recordingNotifier struct {
	sent []sentAlert
}

func (r *recordingNotifier) SendAlert(_ context.Context, subject, body string) {
	r.sent = append(r.sent, sentAlert{subject, body})
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("sqlite", filepath.Join(t.TempDir(), "lens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func item(title, url string, age time.Duration) types.NewsItem {
	return types.NewsItem{Title: title, URL: url, Source: "Reuters", PublishedAt: testNow.Add(-age)}
}

func aaplItems() []types.NewsItem {
	return []types.NewsItem{
		item("AAPL falls on weak iPhone demand", "https://example.com/a1", time.Hour),
		item("AAPL falls again as suppliers cut orders", "https://example.com/a2", 2*time.Hour),
		item("AAPL falls after antitrust ruling", "https://example.com/a3", 3*time.Hour),
		item("AAPL falls in premarket trading", "https://example.com/a4", 4*time.Hour),
		item("AAPL beats services estimates", "https://example.com/a5", 5*time.Hour),
	}
}

type harness struct {
	store    *store.Store
	source   *fakeSource
	model    *keywordClassifier
	notifier *recordingNotifier
	pipeline *Pipeline
}

func newHarness(t *testing.T, alerts AlertConfig, symbols ...string) *harness {
	t.Helper()
	h := &harness{
		store:    newTestStore(t),
		source:   &fakeSource{items: map[string][]types.NewsItem{}, fail: map[string]error{}},
		model:    &keywordClassifier{},
		notifier: &recordingNotifier{},
	}
	for _, sym := range symbols {
		_, err := h.store.AddTicker(context.Background(), sym)
		require.NoError(t, err)
	}
	h.pipeline = New(h.store, h.source, h.model, h.notifier,
		filter.NewNoiseFilter(config.DefaultNoiseKeywords()),
		Config{PageSize: 20, Alerts: alerts},
	)
	h.pipeline.SetClock(func() time.Time { return testNow })
	return h
}

func TestCycleAlertsOnNegativeCluster(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = aaplItems()

	report, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 1, report.Ingest.Tickers)
	assert.Equal(t, 5, report.Ingest.Inserted)
	assert.Equal(t, 5, report.Classify.Classified)
	assert.Equal(t, 4, report.Classify.ByLabel[types.SentimentNegative])
	assert.Equal(t, 1, report.Classify.ByLabel[types.SentimentPositive])

	require.Len(t, h.notifier.sent, 1)
	sent := h.notifier.sent[0]
	assert.Equal(t, "Sentiment Alert for AAPL", sent.subject)

	g := goldie.New(t)
	g.Assert(t, "alert_aapl", []byte(sent.subject+"\n"+sent.body+"\n"))
}

func TestSecondCycleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = aaplItems()

	_, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)
	callsAfterFirst := h.model.calls

	report, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Ingest.Inserted)
	assert.Equal(t, 5, report.Ingest.Duplicates)
	assert.Equal(t, 0, report.Classify.Selected)
	assert.Equal(t, callsAfterFirst, h.model.calls, "no article is classified twice")

	// still above threshold, but inside the cooldown
	require.Len(t, report.Alerts, 1)
	assert.True(t, report.Alerts[0].Suppressed)
	assert.Len(t, h.notifier.sent, 1)
}

func TestEveryCyclePolicyRepeatsAlerts(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultAlertConfig()
	cfg.Policy = config.PolicyEveryCycle
	h := newHarness(t, cfg, "AAPL")
	h.source.items["AAPL"] = aaplItems()

	for i := 0; i < 3; i++ {
		_, err := h.pipeline.RunCycle(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, h.notifier.sent, 3)
}

func TestCooldownExpires(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = aaplItems()

	_, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)

	// fresh negatives a day later, after the cooldown has elapsed
	later := testNow.Add(25 * time.Hour)
	h.pipeline.SetClock(func() time.Time { return later })
	h.source.items["AAPL"] = []types.NewsItem{
		{Title: "AAPL falls on guidance", URL: "https://example.com/b1", PublishedAt: later.Add(-time.Hour)},
		{Title: "AAPL falls on recall", URL: "https://example.com/b2", PublishedAt: later.Add(-time.Hour)},
		{Title: "AAPL falls on probe", URL: "https://example.com/b3", PublishedAt: later.Add(-time.Hour)},
	}

	_, err = h.pipeline.RunCycle(ctx)
	require.NoError(t, err)
	require.Len(t, h.notifier.sent, 2)
	assert.Contains(t, h.notifier.sent[1].body, "detected 3 negative articles for AAPL")
}

func TestThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		negatives int
		wantAlert bool
	}{
		{"below threshold", 2, false},
		{"at threshold", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, DefaultAlertConfig(), "TSLA")
			for i := 0; i < tt.negatives; i++ {
				h.source.items["TSLA"] = append(h.source.items["TSLA"],
					item("TSLA falls", "https://example.com/t"+string(rune('a'+i)), time.Hour))
			}

			report, err := h.pipeline.RunCycle(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlert, len(report.Alerts) == 1)
			assert.Equal(t, tt.wantAlert, len(h.notifier.sent) == 1)
		})
	}
}

func TestWindowExcludesOldArticles(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig(), "NFLX")
	h.source.items["NFLX"] = []types.NewsItem{
		item("NFLX falls on churn", "https://example.com/n1", time.Hour),
		item("NFLX falls on pricing", "https://example.com/n2", 23*time.Hour),
		item("NFLX falls on old news", "https://example.com/n3", 25*time.Hour),
	}

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Classify.ByLabel[types.SentimentNegative])
	assert.Empty(t, report.Alerts)
	assert.Empty(t, h.notifier.sent)
}

func TestClassifierFailureAbortsCycle(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = aaplItems()
	h.model.err = errors.New("model not loaded")

	report, err := h.pipeline.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrClassifierFailed)
	assert.Contains(t, err.Error(), "model not loaded")

	require.NotNil(t, report)
	assert.Equal(t, 5, report.Ingest.Inserted, "ingestion finished before the failure")
	assert.Equal(t, err.Error(), report.Error)
	assert.Empty(t, h.notifier.sent)

	// the articles remain pending for the next cycle
	pending, err := h.store.UnclassifiedArticles(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 5)
}

type badClassifier struct{}

func (badClassifier) Predict(context.Context, string) (types.Prediction, error) {
	return types.Prediction{Sentiment: "bullish", Confidence: 0.7}, nil
}

func TestInvalidPredictionIsFatal(t *testing.T) {
	s := newTestStore(t)
	tk, err := s.AddTicker(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = s.InsertArticle(context.Background(), &types.Article{TickerID: tk.ID, Title: "x", URL: "https://example.com/x", PublishedAt: testNow})
	require.NoError(t, err)

	_, err = NewRunner(s, badClassifier{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, classifier.ErrClassifierFailed)
	assert.Contains(t, err.Error(), "bullish")
}

func TestNoisyArticlesAreSkipped(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = []types.NewsItem{
		item("AAPL declares quarterly dividend", "https://example.com/d1", time.Hour),
		item("AAPL falls on weak demand", "https://example.com/d2", time.Hour),
	}

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Classify.Skipped)
	assert.Equal(t, 1, report.Classify.Classified)
	assert.Equal(t, 1, h.model.calls)

	report, err = h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Classify.Selected, "skipped articles are not selected again")
}

func TestIngestContinuesAfterSourceFailure(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig(), "AAPL", "MSFT")
	h.source.fail["AAPL"] = errors.New("HTTP 429: rate limited")
	h.source.items["MSFT"] = []types.NewsItem{
		item("MSFT beats on cloud", "https://example.com/m1", time.Hour),
	}

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, h.source.calls)
	assert.Equal(t, []string{"AAPL"}, report.Ingest.FailedTickers)
	assert.Equal(t, 1, report.Ingest.Inserted)
	assert.Equal(t, 1, report.Classify.Classified)
}

func TestIngestSkipsInvalidAndSharedURLs(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig(), "AAPL", "MSFT")
	shared := item("Big tech falls", "https://example.com/shared", time.Hour)
	h.source.items["AAPL"] = []types.NewsItem{
		shared,
		{Title: "", URL: "https://example.com/untitled", PublishedAt: testNow},
		{Title: "no link", URL: "  ", PublishedAt: testNow},
	}
	h.source.items["MSFT"] = []types.NewsItem{shared}

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingest.Inserted)
	assert.Equal(t, 2, report.Ingest.Invalid)
	assert.Equal(t, 1, report.Ingest.Duplicates, "a URL is stored once, under the first ticker")
}

func TestEmptyTickerListIsANoOp(t *testing.T) {
	h := newHarness(t, DefaultAlertConfig())

	report, err := h.pipeline.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Ingest.Tickers)
	assert.Empty(t, h.source.calls)
	assert.Empty(t, h.notifier.sent)
}

func TestFormatAlert(t *testing.T) {
	subject, body := FormatAlert("AAPL", 4, 24*time.Hour)
	assert.Equal(t, "Sentiment Alert for AAPL", subject)
	assert.Equal(t,
		"SentimentLens has detected 4 negative articles for AAPL in the last 24 hours. You may want to review this ticker.",
		body)
}

func TestWindowPhrase(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{24 * time.Hour, "24 hours"},
		{time.Hour, "hour"},
		{90 * time.Minute, "90 minutes"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, windowPhrase(tt.window), tt.window.String())
	}
}

func TestAlertFiresOnceThresholdReachedAcrossCycles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultAlertConfig(), "AAPL")
	h.source.items["AAPL"] = []types.NewsItem{
		item("AAPL announces quarterly dividend", "https://example.com/s1", time.Hour),
		item("AAPL falls on supply worries", "https://example.com/s2", time.Hour),
	}

	report, err := h.pipeline.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Classify.Classified)
	assert.Equal(t, 1, report.Classify.Skipped)
	assert.Empty(t, h.notifier.sent)

	h.source.items["AAPL"] = append(h.source.items["AAPL"],
		item("AAPL falls as regulators open probe", "https://example.com/s3", 2*time.Hour),
		item("AAPL falls to three-month low", "https://example.com/s4", 3*time.Hour),
	)

	report, err = h.pipeline.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Ingest.Inserted)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Sentiment Alert for AAPL", h.notifier.sent[0].subject)
	assert.Contains(t, h.notifier.sent[0].body, "detected 3 negative articles for AAPL")
}
