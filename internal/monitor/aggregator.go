package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Aggregator reduces a stream of attribution reports into rolling-window
// statistics. It is an explicitly owned accumulator, not a hidden
// singleton: lifecycle is create -> Record* -> Snapshot -> Rollover, with
// the rollover cadence owned by the caller.
//
// Record is safe under concurrent calls from simultaneous evaluations. The
// reduction keeps commutative sums and counts, never incremental running
// averages, so recording order cannot skew the window.
type Aggregator struct {
	mu sync.Mutex

	windowStart time.Time
	lastRecord  time.Time

	sampleCount         int
	attributionSum      float64
	faithfulnessSum     float64
	contradictedReports int
}

// NewAggregator creates an empty window starting now.
func NewAggregator() *Aggregator {
	return &Aggregator{windowStart: time.Now().UTC()}
}

// Record appends one report summary to the current window. Reports are
// never mutated or removed except by an explicit Rollover.
func (a *Aggregator) Record(report model.AttributionReport, timestamp time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sampleCount++
	a.attributionSum += report.AttributionRate
	a.faithfulnessSum += report.FaithfulnessScore
	if report.ContradictionCount > 0 {
		a.contradictedReports++
	}
	if timestamp.After(a.lastRecord) {
		a.lastRecord = timestamp
	}
}

// Snapshot is a point-in-time reduction of the current window.
type Snapshot struct {
	AvgAttributionRate float64   `json:"avg_attribution_rate"`
	AvgFaithfulness    float64   `json:"avg_faithfulness"`
	ContradictionRate  float64   `json:"contradiction_rate"`
	SampleCount        int       `json:"sample_count"`
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
}

// Snapshot reduces the current window without modifying it. An empty window
// yields zero rates, not NaN.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() Snapshot {
	s := Snapshot{
		SampleCount: a.sampleCount,
		WindowStart: a.windowStart,
		WindowEnd:   a.lastRecord,
	}
	if a.sampleCount == 0 {
		return s
	}

	n := float64(a.sampleCount)
	s.AvgAttributionRate = a.attributionSum / n
	s.AvgFaithfulness = a.faithfulnessSum / n
	s.ContradictionRate = float64(a.contradictedReports) / n
	return s
}

// Rollover resets the window and returns its final snapshot.
func (a *Aggregator) Rollover() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	final := a.snapshotLocked()

	a.windowStart = time.Now().UTC()
	a.lastRecord = time.Time{}
	a.sampleCount = 0
	a.attributionSum = 0
	a.faithfulnessSum = 0
	a.contradictedReports = 0

	return final
}

// Alert is one triggered threshold violation.
type Alert struct {
	Threshold string  `json:"threshold"`
	Value     float64 `json:"value"`
	Limit     float64 `json:"limit"`
	Message   string  `json:"message"`
}

// CheckThresholds evaluates a snapshot against the monitoring policy. Any
// omitted (nil) threshold is disabled. An empty window triggers nothing.
func CheckThresholds(s Snapshot, policy model.MonitorConfig) []Alert {
	var alerts []Alert

	if s.SampleCount == 0 {
		return alerts
	}

	if policy.MinAttributionRate != nil && s.AvgAttributionRate < *policy.MinAttributionRate {
		alerts = append(alerts, Alert{
			Threshold: "min_attribution_rate",
			Value:     s.AvgAttributionRate,
			Limit:     *policy.MinAttributionRate,
			Message:   fmt.Sprintf("average attribution rate %.3f below minimum %.3f", s.AvgAttributionRate, *policy.MinAttributionRate),
		})
	}

	if policy.MinFaithfulness != nil && s.AvgFaithfulness < *policy.MinFaithfulness {
		alerts = append(alerts, Alert{
			Threshold: "min_faithfulness",
			Value:     s.AvgFaithfulness,
			Limit:     *policy.MinFaithfulness,
			Message:   fmt.Sprintf("average faithfulness %.3f below minimum %.3f", s.AvgFaithfulness, *policy.MinFaithfulness),
		})
	}

	if policy.MaxContradictionRate != nil && s.ContradictionRate > *policy.MaxContradictionRate {
		alerts = append(alerts, Alert{
			Threshold: "max_contradiction_rate",
			Value:     s.ContradictionRate,
			Limit:     *policy.MaxContradictionRate,
			Message:   fmt.Sprintf("contradiction rate %.3f above maximum %.3f", s.ContradictionRate, *policy.MaxContradictionRate),
		})
	}

	return alerts
}
