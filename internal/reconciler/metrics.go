package reconciler

import (
	"sort"
	"sync"
	"time"

	"eventcheck/internal/expectation"
	"eventcheck/pkg/logging"
)

// Metrics tracks reconciliation outcomes per object type.
//
// A pass records one query per expectation and exactly one outcome:
// matched, unmatched or transport error.
type Metrics struct {
	mu sync.RWMutex

	objectMetrics map[expectation.ObjectType]*objectTypeMetrics

	totalQueries         int64
	totalMatched         int64
	totalUnmatched       int64
	totalTransportErrors int64
	passes               int64
	lastPassAt           time.Time
	lastPassDuration     time.Duration
}

type objectTypeMetrics struct {
	ObjectType      expectation.ObjectType
	Queries         int64
	Matched         int64
	Unmatched       int64
	TransportErrors int64
	LastMatchAt     time.Time
	LastFailureAt   time.Time
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		objectMetrics: make(map[expectation.ObjectType]*objectTypeMetrics),
	}
}

func (m *Metrics) getOrCreate(objectType expectation.ObjectType) *objectTypeMetrics {
	if metrics, exists := m.objectMetrics[objectType]; exists {
		return metrics
	}
	metrics := &objectTypeMetrics{ObjectType: objectType}
	m.objectMetrics[objectType] = metrics
	return metrics
}

// RecordQuery records a query issued for id.
func (m *Metrics) RecordQuery(id expectation.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(id.ObjectType).Queries++
	m.totalQueries++

	logging.Debug("ReconcilerMetrics", "Query for %s", id)
}

// RecordMatch records that id arrived at the given time.
func (m *Metrics) RecordMatch(id expectation.Identity, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id.ObjectType)
	metrics.Matched++
	metrics.LastMatchAt = at
	m.totalMatched++

	logging.Debug("ReconcilerMetrics", "Matched %s at %s", id, at.Format(time.RFC3339))
}

// RecordUnmatched records that no event was found for id.
func (m *Metrics) RecordUnmatched(id expectation.Identity, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id.ObjectType)
	metrics.Unmatched++
	metrics.LastFailureAt = at
	m.totalUnmatched++

	logging.Debug("ReconcilerMetrics", "No event for %s", id)
}

// RecordTransportError records that the listener could not be queried for id.
// The expectation stays unmatched.
func (m *Metrics) RecordTransportError(id expectation.Identity, at time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id.ObjectType)
	metrics.TransportErrors++
	metrics.LastFailureAt = at
	m.totalTransportErrors++

	logging.Warn("ReconcilerMetrics", "Transport error for %s: %v (errors: %d)", id, err, metrics.TransportErrors)
}

// RecordPass records a completed reconciliation pass.
func (m *Metrics) RecordPass(startedAt time.Time, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passes++
	m.lastPassAt = startedAt
	m.lastPassDuration = duration
}

// MetricsSummary is a read-only snapshot of Metrics.
type MetricsSummary struct {
	Passes               int64              `json:"passes"`
	TotalQueries         int64              `json:"total_queries"`
	TotalMatched         int64              `json:"total_matched"`
	TotalUnmatched       int64              `json:"total_unmatched"`
	TotalTransportErrors int64              `json:"total_transport_errors"`
	LastPassAt           time.Time          `json:"last_pass_at,omitempty"`
	LastPassDuration     time.Duration      `json:"last_pass_duration"`
	PerObjectType        []ObjectMetricView `json:"per_object_type"`
	MatchRate            float64            `json:"match_rate"`
}

// ObjectMetricView is a read-only view of one object type's counters.
type ObjectMetricView struct {
	ObjectType      expectation.ObjectType `json:"object_type"`
	Queries         int64                  `json:"queries"`
	Matched         int64                  `json:"matched"`
	Unmatched       int64                  `json:"unmatched"`
	TransportErrors int64                  `json:"transport_errors"`
	LastMatchAt     time.Time              `json:"last_match_at,omitempty"`
	LastFailureAt   time.Time              `json:"last_failure_at,omitempty"`
}

// GetSummary returns a snapshot of the current counters. Object types are
// sorted by name.
func (m *Metrics) GetSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := MetricsSummary{
		Passes:               m.passes,
		TotalQueries:         m.totalQueries,
		TotalMatched:         m.totalMatched,
		TotalUnmatched:       m.totalUnmatched,
		TotalTransportErrors: m.totalTransportErrors,
		LastPassAt:           m.lastPassAt,
		LastPassDuration:     m.lastPassDuration,
		PerObjectType:        make([]ObjectMetricView, 0, len(m.objectMetrics)),
	}

	for _, metrics := range m.objectMetrics {
		summary.PerObjectType = append(summary.PerObjectType, ObjectMetricView{
			ObjectType:      metrics.ObjectType,
			Queries:         metrics.Queries,
			Matched:         metrics.Matched,
			Unmatched:       metrics.Unmatched,
			TransportErrors: metrics.TransportErrors,
			LastMatchAt:     metrics.LastMatchAt,
			LastFailureAt:   metrics.LastFailureAt,
		})
	}
	sort.Slice(summary.PerObjectType, func(i, j int) bool {
		return summary.PerObjectType[i].ObjectType < summary.PerObjectType[j].ObjectType
	})

	if m.totalQueries > 0 {
		summary.MatchRate = float64(m.totalMatched) / float64(m.totalQueries)
	}
	return summary
}
