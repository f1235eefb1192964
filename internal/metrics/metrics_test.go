package metrics

import (
	"encoding/json"
	"expvar"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarRecorderPublishesCounts(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.FormatDetected("binary")
	rec.FormatDetected("binary")
	rec.Repaired("binary")
	rec.DefaultSynthesized("frog")
	rec.ValidationRejected("size")
	rec.Migrated("legacy", "ordered")

	if got := rec.Count(EventFormatDetected, "binary"); got != 2 {
		t.Fatalf("expected 2 detections, got %d", got)
	}
	if got := rec.Count(EventMigrated, "legacy->ordered"); got != 1 {
		t.Fatalf("expected 1 migration, got %d", got)
	}

	v := expvar.Get(rec.Name())
	if v == nil {
		t.Fatalf("expected expvar to publish %s", rec.Name())
	}
	var snap ExpvarSnapshot
	if err := json.Unmarshal([]byte(v.String()), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Counts[EventRepaired]["binary"] != 1 || snap.RecordedAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestExpvarRecorderDuplicateName(t *testing.T) {
	first := NewExpvarRecorder("genecore_dup_test")
	second := NewExpvarRecorder("genecore_dup_test")
	if second.Name() == first.Name() || expvar.Get(second.Name()) == nil {
		t.Fatalf("expected a distinct published name, got %s", second.Name())
	}
	second.Repaired("binary")
	if first.Count(EventRepaired, "binary") != 0 || second.Count(EventRepaired, "binary") != 1 {
		t.Fatalf("recorders must count independently")
	}
}

func TestExpvarSnapshotIsDetached(t *testing.T) {
	rec := NewExpvarRecorder("")
	rec.Repaired("binary")
	snap := rec.Snapshot()
	snap.Counts[EventRepaired]["binary"] = 42
	if rec.Count(EventRepaired, "binary") != 1 {
		t.Fatalf("snapshot mutation leaked into recorder")
	}
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.FormatDetected("ordered")
	rec.Repaired("binary")
	rec.Repaired("binary")
	rec.Migrated("binary", "ordered")

	c := rec.Collectors()
	if got := testutil.ToFloat64(c[EventFormatDetected].WithLabelValues("ordered")); got != 1 {
		t.Fatalf("expected 1 detection, got %v", got)
	}
	if got := testutil.ToFloat64(c[EventRepaired].WithLabelValues("binary")); got != 2 {
		t.Fatalf("expected 2 repairs, got %v", got)
	}
	if got := testutil.ToFloat64(c[EventMigrated].WithLabelValues("binary", "ordered")); got != 1 {
		t.Fatalf("expected 1 migration, got %v", got)
	}
	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(Nop); !ok {
		t.Fatalf("expected Nop for nil recorder")
	}
	rec := NewExpvarRecorder("")
	if OrNop(rec) != Recorder(rec) {
		t.Fatalf("expected recorder to be returned unchanged")
	}
}
