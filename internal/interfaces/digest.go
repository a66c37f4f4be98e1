package interfaces

import (
	"context"
	"time"
)

type DigestWriter interface {
	SummarizeDay(ctx context.Context, t time.Time) (csvPath string, err error)
	ShouldRunNow(now time.Time) (shouldRun bool, csvPath string)
}
