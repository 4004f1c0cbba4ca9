// Package history persists run records and summarises past runs.
package history

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ethpandaops/pageaudit/internal/audit/record"
)

// Trend labels comparing a run with the one before it.
const (
	TrendFirstRun  = "FIRST_RUN"
	TrendImproving = "IMPROVING"
	TrendDeclining = "DECLINING"
	TrendSame      = "SAME"
)

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec *record.RunRecord) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Entry summarises one stored run.
type Entry struct {
	ID         string
	Timestamp  time.Time
	Mode       record.Mode
	URLs       int
	FailedURLs int
	ChecksPass int
	ChecksFail int
	ChecksNA   int
	Trend      string
	TrendDelta float64 // pass rate change in percentage points
}

// PassRate is the share of gated checks that passed, in percent. A run with
// no gated checks counts as fully passing unless a URL errored.
func (e Entry) PassRate() float64 {
	gated := e.ChecksPass + e.ChecksFail + e.FailedURLs
	if gated == 0 {
		return 100
	}

	return math.Round(float64(e.ChecksPass)/float64(gated)*1000) / 10
}

// NewEntry summarises rec.
func NewEntry(rec *record.RunRecord) Entry {
	s := rec.Summarize()

	return Entry{
		ID:         rec.ID,
		Timestamp:  rec.Timestamp,
		Mode:       rec.Mode,
		URLs:       s.URLs,
		FailedURLs: s.FailedURLs,
		ChecksPass: s.MetricsPassed + s.FlowsPassed,
		ChecksFail: s.MetricsFailed + s.FlowsFailed,
		ChecksNA:   s.MetricsNA,
	}
}

// ApplyTrends labels each entry against the one before it. Entries must be
// in chronological order.
func ApplyTrends(entries []Entry) {
	for i := range entries {
		if i == 0 {
			entries[i].Trend = TrendFirstRun
			entries[i].TrendDelta = 0

			continue
		}

		delta := math.Round((entries[i].PassRate()-entries[i-1].PassRate())*10) / 10
		entries[i].TrendDelta = delta

		switch {
		case delta > 0:
			entries[i].Trend = TrendImproving
		case delta < 0:
			entries[i].Trend = TrendDeclining
		default:
			entries[i].Trend = TrendSame
		}
	}
}

// lastN keeps the newest limit entries; limit <= 0 keeps all.
func lastN(entries []Entry, limit int) []Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}

	return entries[len(entries)-limit:]
}

// Multi appends to every store and lists from the first one.
type Multi struct {
	stores []Store
}

// NewMulti combines stores. The first store answers List.
func NewMulti(stores ...Store) *Multi {
	return &Multi{stores: stores}
}

// Append writes rec to every store, attempting all of them.
func (m *Multi) Append(ctx context.Context, rec *record.RunRecord) error {
	var errs []error

	for _, s := range m.stores {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// List lists runs from the first store.
func (m *Multi) List(ctx context.Context, limit int) ([]Entry, error) {
	if len(m.stores) == 0 {
		return []Entry{}, nil
	}

	return m.stores[0].List(ctx, limit)
}

// Close closes every store.
func (m *Multi) Close() error {
	var errs []error

	for _, s := range m.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Compile-time interface compliance check
var _ Store = (*Multi)(nil)
