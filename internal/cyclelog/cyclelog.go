// Package cyclelog keeps one JSON line per pipeline cycle in daily files
// under <dir>/cycles.
package cyclelog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sentiment-lens/internal/types"
)

type Log struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Log {
	if dir == "" {
		dir = "logs"
	}
	return &Log{dir: dir, now: time.Now}
}

func (l *Log) Dir() string { return filepath.Join(l.dir, "cycles") }

// DailyPath is the file reports finished on t's UTC date go to.
func (l *Log) DailyPath(t time.Time) string {
	return filepath.Join(l.Dir(), t.UTC().Format("2006-01-02")+".jsonl")
}

// Append writes the report to its day's file. The date is taken from
// FinishedAt, falling back to the current time for unfinished reports.
func (l *Log) Append(report *types.CycleReport) error {
	if report == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	at := report.FinishedAt
	if at.IsZero() {
		at = l.now()
	}
	p := l.DailyPath(at)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode cycle report: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Sink adapts Append to the scheduler's report callback.
func (l *Log) Sink(_ context.Context, report *types.CycleReport) error {
	return l.Append(report)
}

// CompressOlder gzips daily files last modified more than retentionDays ago
// and removes the originals. Files that fail to compress are left in place.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.Dir(), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
