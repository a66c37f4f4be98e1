package digestobs

import (
	"context"
	"time"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
)

type observableDigest struct {
	digest interfaces.DigestWriter
}

var _ interfaces.DigestWriter = (*observableDigest)(nil)

func Wrap(digest interfaces.DigestWriter) interfaces.DigestWriter {
	return &observableDigest{digest: digest}
}

func (od *observableDigest) SummarizeDay(ctx context.Context, t time.Time) (string, error) {
	date := t.Format("2006-01-02")
	timer := logger.StartOperation(ctx, "digest.SummarizeDay", "date", date)
	ctx = timer.GetContext()

	csvPath, err := od.digest.SummarizeDay(ctx, t)
	if err != nil {
		timer.EndWithError(err)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No classifications found for digest", "date", date)
	} else {
		logger.InfoSkip(ctx, 1, "Sentiment digest generated", "date", date, "csv_path", csvPath)
	}
	timer.End("csv_path", csvPath)
	return csvPath, nil
}

func (od *observableDigest) ShouldRunNow(now time.Time) (bool, string) {
	shouldRun, csvPath := od.digest.ShouldRunNow(now)
	logger.DebugSkip(context.Background(), 1, "Digest check completed",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)
	return shouldRun, csvPath
}
