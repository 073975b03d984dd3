package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rcliao/ram-pet/internal/model"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestObserve(t *testing.T) {
	m := newTestMetrics(t)

	m.Observe(model.Snapshot{Stage: model.StageTeen, Hunger: 42, CommittedBytes: 200 << 20, FreeBytes: 3 << 30})

	if v := testutil.ToFloat64(m.CommittedBytes); v != 200<<20 {
		t.Errorf("CommittedBytes = %f, want %d", v, 200<<20)
	}
	if v := testutil.ToFloat64(m.Hunger); v != 42 {
		t.Errorf("Hunger = %f, want 42", v)
	}
	if v := testutil.ToFloat64(m.Stage); v != 2 {
		t.Errorf("Stage = %f, want 2", v)
	}
}

func TestRecordFeedOutcomes(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordFeed(model.FeedResult{RequestedBytes: 10, GrantedBytes: 10}, nil)
	m.RecordFeed(model.FeedResult{RequestedBytes: 10, GrantedBytes: 4}, nil)
	m.RecordFeed(model.FeedResult{RequestedBytes: 10, Starved: true}, errors.New("no headroom"))
	m.RecordFeed(model.FeedResult{RequestedBytes: 10}, errors.New("monitor down"))

	for outcome, want := range map[string]float64{
		OutcomeFull: 1, OutcomePartial: 1, OutcomeRefused: 1, OutcomeError: 1,
	} {
		if v := testutil.ToFloat64(m.FeedsTotal.WithLabelValues(outcome)); v != want {
			t.Errorf("FeedsTotal[%s] = %f, want %f", outcome, v, want)
		}
	}
	if v := testutil.ToFloat64(m.GrantedBytesTotal); v != 14 {
		t.Errorf("GrantedBytesTotal = %f, want 14", v)
	}
}

func TestRecordSaveAndStarvation(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSave(nil)
	m.RecordSave(errors.New("disk full"))
	m.RecordStarvation(3 << 20)

	if v := testutil.ToFloat64(m.SavesTotal.WithLabelValues("error")); v != 1 {
		t.Errorf("SavesTotal[error] = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.StarvedBytesTotal); v != 3<<20 {
		t.Errorf("StarvedBytesTotal = %f, want %d", v, 3<<20)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe(model.Snapshot{})
	m.RecordFeed(model.FeedResult{}, nil)
	m.RecordStarvation(1)
	m.RecordSave(nil)
}
