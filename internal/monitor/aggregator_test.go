package monitor

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/groundcheck/groundcheck/internal/model"
)

func TestAggregator_Record_SnapshotMath(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	agg.Record(model.AttributionReport{AttributionRate: 1.0, FaithfulnessScore: 1.0}, now)
	agg.Record(model.AttributionReport{AttributionRate: 0.5, FaithfulnessScore: 0.75, ContradictionCount: 1}, now.Add(time.Second))
	agg.Record(model.AttributionReport{AttributionRate: 0.0, FaithfulnessScore: 0.5, ContradictionCount: 2}, now.Add(2*time.Second))

	s := agg.Snapshot()

	if s.SampleCount != 3 {
		t.Fatalf("Expected 3 samples, got %d", s.SampleCount)
	}
	if s.AvgAttributionRate != 0.5 {
		t.Errorf("Expected avg attribution 0.5, got %f", s.AvgAttributionRate)
	}
	if s.AvgFaithfulness != 0.75 {
		t.Errorf("Expected avg faithfulness 0.75, got %f", s.AvgFaithfulness)
	}
	// Two of three reports had at least one contradiction
	if math.Abs(s.ContradictionRate-2.0/3.0) > 1e-9 {
		t.Errorf("Expected contradiction rate 2/3, got %f", s.ContradictionRate)
	}
	if !s.WindowEnd.Equal(now.Add(2 * time.Second)) {
		t.Errorf("Expected window end to track last record, got %v", s.WindowEnd)
	}
}

func TestAggregator_Snapshot_EmptyWindow(t *testing.T) {
	agg := NewAggregator()

	s := agg.Snapshot()

	if s.SampleCount != 0 {
		t.Errorf("Expected empty window, got %d samples", s.SampleCount)
	}
	if s.AvgAttributionRate != 0 || s.AvgFaithfulness != 0 || s.ContradictionRate != 0 {
		t.Error("Empty window must yield zero rates")
	}
	if math.IsNaN(s.AvgAttributionRate) {
		t.Error("Empty window must not yield NaN")
	}
}

func TestAggregator_Record_Concurrent(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(model.AttributionReport{AttributionRate: 0.8, FaithfulnessScore: 0.9, ContradictionCount: 1}, now)
		}()
	}
	wg.Wait()

	s := agg.Snapshot()

	if s.SampleCount != 50 {
		t.Errorf("Expected 50 samples, got %d", s.SampleCount)
	}
	if math.Abs(s.AvgAttributionRate-0.8) > 1e-9 {
		t.Errorf("Expected avg attribution 0.8, got %f", s.AvgAttributionRate)
	}
	if s.ContradictionRate != 1.0 {
		t.Errorf("Expected contradiction rate 1.0, got %f", s.ContradictionRate)
	}
}

func TestAggregator_Rollover_ResetsWindow(t *testing.T) {
	agg := NewAggregator()
	now := time.Now().UTC()

	agg.Record(model.AttributionReport{AttributionRate: 0.6, FaithfulnessScore: 0.8}, now)
	agg.Record(model.AttributionReport{AttributionRate: 0.4, FaithfulnessScore: 0.6, ContradictionCount: 1}, now)

	final := agg.Rollover()

	if final.SampleCount != 2 {
		t.Errorf("Expected final snapshot of 2 samples, got %d", final.SampleCount)
	}
	if math.Abs(final.AvgAttributionRate-0.5) > 1e-9 {
		t.Errorf("Expected final avg attribution 0.5, got %f", final.AvgAttributionRate)
	}

	fresh := agg.Snapshot()
	if fresh.SampleCount != 0 {
		t.Errorf("Expected empty window after rollover, got %d samples", fresh.SampleCount)
	}
	if !fresh.WindowStart.After(final.WindowStart) && !fresh.WindowStart.Equal(final.WindowStart) {
		t.Error("Expected new window to start at or after the old one")
	}

	// Recording after rollover starts a clean accumulation
	agg.Record(model.AttributionReport{AttributionRate: 1.0, FaithfulnessScore: 1.0}, now.Add(time.Minute))
	s := agg.Snapshot()
	if s.SampleCount != 1 || s.AvgAttributionRate != 1.0 {
		t.Errorf("Expected clean window after rollover, got %+v", s)
	}
}

func TestCheckThresholds_AllTriggered(t *testing.T) {
	minAttr := 0.7
	minFaith := 0.9
	maxContra := 0.1
	policy := model.MonitorConfig{
		MinAttributionRate:   &minAttr,
		MinFaithfulness:      &minFaith,
		MaxContradictionRate: &maxContra,
	}

	s := Snapshot{
		AvgAttributionRate: 0.5,
		AvgFaithfulness:    0.8,
		ContradictionRate:  0.25,
		SampleCount:        4,
	}

	alerts := CheckThresholds(s, policy)

	if len(alerts) != 3 {
		t.Fatalf("Expected 3 alerts, got %d: %+v", len(alerts), alerts)
	}
	names := map[string]bool{}
	for _, a := range alerts {
		names[a.Threshold] = true
		if a.Message == "" {
			t.Errorf("Alert %s has empty message", a.Threshold)
		}
	}
	for _, want := range []string{"min_attribution_rate", "min_faithfulness", "max_contradiction_rate"} {
		if !names[want] {
			t.Errorf("Missing expected alert %s", want)
		}
	}
}

func TestCheckThresholds_NilThresholdsDisabled(t *testing.T) {
	s := Snapshot{
		AvgAttributionRate: 0.0,
		AvgFaithfulness:    0.0,
		ContradictionRate:  1.0,
		SampleCount:        10,
	}

	alerts := CheckThresholds(s, model.MonitorConfig{})

	if len(alerts) != 0 {
		t.Errorf("Expected no alerts with nil thresholds, got %+v", alerts)
	}
}

func TestCheckThresholds_EmptyWindow(t *testing.T) {
	minAttr := 0.7
	policy := model.MonitorConfig{MinAttributionRate: &minAttr}

	alerts := CheckThresholds(Snapshot{}, policy)

	if len(alerts) != 0 {
		t.Errorf("Expected no alerts for an empty window, got %+v", alerts)
	}
}

func TestCheckThresholds_BoundaryNotTriggered(t *testing.T) {
	minAttr := 0.7
	maxContra := 0.1
	policy := model.MonitorConfig{
		MinAttributionRate:   &minAttr,
		MaxContradictionRate: &maxContra,
	}

	// Exactly at the limits does not trigger
	s := Snapshot{
		AvgAttributionRate: 0.7,
		ContradictionRate:  0.1,
		SampleCount:        1,
	}

	alerts := CheckThresholds(s, policy)

	if len(alerts) != 0 {
		t.Errorf("Expected no alerts at exact thresholds, got %+v", alerts)
	}
}
