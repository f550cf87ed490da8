// Package worker runs batch indexing: a bounded pool of goroutines that
// decode recordings, walk their bodies and upsert catalog rows. One bad
// file fails its own result only.
package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"

	"github.com/siegetools/recgame/internal/catalog"
	"github.com/siegetools/recgame/internal/extract"
	"github.com/siegetools/recgame/internal/logging"
	"github.com/siegetools/recgame/internal/monitor"
	"github.com/siegetools/recgame/internal/summary"
	"github.com/siegetools/recgame/pkg/mgz"
)

// Dependencies holds all dependencies for the worker manager.
type Dependencies struct {
	LogManager *logging.Manager
	Backend    catalog.Backend
	Monitor    *monitor.Manager // optional
}

// Result is the outcome of indexing one path.
type Result struct {
	Path   string
	Record *catalog.Record
	Err    error
}

// Manager manages indexing worker goroutines.
type Manager struct {
	deps  Dependencies
	count int

	indexed metric.Int64Counter
	failed  metric.Int64Counter
	opsRead metric.Int64Counter
}

// NewManager creates a new worker manager. Pool size comes from the
// worker.count configuration key.
func NewManager(deps Dependencies) *Manager {
	count := viper.GetInt("worker.count")
	if count < 1 {
		count = 1
	}

	m := &Manager{deps: deps, count: count}
	m.indexed, _ = meter().Int64Counter("recgame.recordings.indexed")
	m.failed, _ = meter().Int64Counter("recgame.recordings.failed")
	m.opsRead, _ = meter().Int64Counter("recgame.operations.read")
	return m
}

// Run indexes all paths and returns one Result per path, in completion
// order. It stops handing out new work when ctx is cancelled; results
// for unstarted paths carry the context error.
func (m *Manager) Run(ctx context.Context, paths []string) []Result {
	start := time.Now()
	jobs := make(chan string)
	out := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < m.count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rec, err := m.IndexOne(ctx, path)
				out <- Result{Path: path, Record: rec, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				out <- Result{Path: path, Err: ctx.Err()}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]Result, 0, len(paths))
	var ok, bad int
	for r := range out {
		if r.Err != nil {
			bad++
		} else {
			ok++
		}
		results = append(results, r)
	}

	if m.deps.Monitor != nil {
		point := monitor.BatchPoint(ok, bad, time.Since(start))
		if err := m.deps.Monitor.WritePoint(ctx, monitor.BucketBatchRuns, point); err != nil {
			m.deps.LogManager.Logger().Warn("writing batch metric point", "error", err)
		}
	}
	return results
}

// IndexOne decodes the recording at path, walks its body and upserts the
// catalog row. The returned record is nil when any stage fails.
func (m *Manager) IndexOne(ctx context.Context, path string) (*catalog.Record, error) {
	logger := m.deps.LogManager.Logger()
	start := time.Now()

	row, err := m.indexOne(ctx, path)
	if err != nil {
		m.failed.Add(ctx, 1)
		logger.Error("indexing recording", "path", path, "error", err)
	} else {
		m.indexed.Add(ctx, 1)
		m.opsRead.Add(ctx, int64(row.Operations))
		logger.Info("indexed recording",
			"path", path,
			"version", row.GameVersion,
			"players", row.NumPlayers,
			"operations", row.Operations,
			"took", time.Since(start))
	}

	if m.deps.Monitor != nil {
		point := monitor.ParsePoint(row, time.Since(start), outcome(err))
		if werr := m.deps.Monitor.WritePoint(ctx, monitor.BucketParseMetrics, point); werr != nil {
			logger.Warn("writing parse metric point", "path", path, "error", werr)
		}
	}
	return row, err
}

func (m *Manager) indexOne(ctx context.Context, path string) (*catalog.Record, error) {
	raw, err := extract.Load(path, m.deps.LogManager.Logger())
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(raw)
	hdr, err := mgz.DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	c, err := mgz.NewCursor(r)
	if err != nil {
		return nil, err
	}
	sum, err := summary.Build(hdr, c)
	if err != nil {
		return nil, err
	}

	row, err := catalog.NewRecord(path, hdr, sum.DurationMs, sum.Operations)
	if err != nil {
		return nil, err
	}
	if err := m.deps.Backend.Put(row); err != nil {
		return nil, err
	}
	return row, nil
}

// outcome classifies an indexing error for the metrics tag.
func outcome(err error) string {
	var unsupported *mgz.UnsupportedFormatError
	var corruptHeader *mgz.CorruptHeaderError
	var corruptBody *mgz.CorruptBodyError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unsupported):
		return "unsupported"
	case errors.As(err, &corruptHeader):
		return "corrupt_header"
	case errors.As(err, &corruptBody):
		return "corrupt_body"
	case errors.Is(err, mgz.ErrEndOfData):
		return "truncated"
	default:
		return "error"
	}
}
