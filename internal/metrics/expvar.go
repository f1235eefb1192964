package metrics

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	expvarSeq uint64
	publishMu sync.Mutex
)

// ExpvarRecorder publishes event counters via expvar for deployments that
// prefer process-local metrics without a scrape endpoint. Counters are kept
// per event and label.
type ExpvarRecorder struct {
	name   string
	mu     sync.Mutex
	counts map[string]map[string]int64
}

// ExpvarSnapshot captures a read-only view of the recorded counters.
type ExpvarSnapshot struct {
	Counts     map[string]map[string]int64 `json:"events_total"`
	RecordedAt time.Time                   `json:"recorded_at"`
}

// NewExpvarRecorder constructs an expvar-backed recorder and publishes it
// under the supplied name. When name is empty, a unique identifier is
// generated; a name that is already published gets a numeric suffix, since
// expvar panics on duplicates. Name reports the name actually used.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	rec := &ExpvarRecorder{counts: make(map[string]map[string]int64)}
	publishMu.Lock()
	defer publishMu.Unlock()
	base := name
	if base == "" {
		base = "genecore_save_metrics"
	}
	for name == "" || expvar.Get(name) != nil {
		name = fmt.Sprintf("%s_%d", base, atomic.AddUint64(&expvarSeq, 1))
	}
	rec.name = name
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarRecorder) Name() string {
	return r.name
}

// Count returns the counter for event and label.
func (r *ExpvarRecorder) Count(event, label string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[event][label]
}

// Snapshot returns an immutable copy of the counters.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]map[string]int64, len(r.counts))
	for event, labels := range r.counts {
		cpy := make(map[string]int64, len(labels))
		for label, n := range labels {
			cpy[label] = n
		}
		counts[event] = cpy
	}
	return ExpvarSnapshot{
		Counts:     counts,
		RecordedAt: time.Now().UTC(),
	}
}

func (r *ExpvarRecorder) FormatDetected(format string)   { r.inc(EventFormatDetected, format) }
func (r *ExpvarRecorder) Repaired(format string)         { r.inc(EventRepaired, format) }
func (r *ExpvarRecorder) DefaultSynthesized(root string) { r.inc(EventDefaultSynthesized, root) }
func (r *ExpvarRecorder) ValidationRejected(slot string) { r.inc(EventValidationRejected, slot) }
func (r *ExpvarRecorder) Migrated(from, to string)       { r.inc(EventMigrated, from+"->"+to) }

func (r *ExpvarRecorder) inc(event, label string) {
	r.mu.Lock()
	if _, ok := r.counts[event]; !ok {
		r.counts[event] = make(map[string]int64, 2)
	}
	r.counts[event][label]++
	r.mu.Unlock()
}
