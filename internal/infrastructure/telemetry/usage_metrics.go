package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// UsageMetrics holds the instruments the ingestion and insight paths report
// into
type UsageMetrics struct {
	eventsIngested    metric.Int64Counter
	eventsDeduped     metric.Int64Counter
	snapshotsSynced   metric.Int64Counter
	snapshotsRejected metric.Int64Counter
	insightsGenerated metric.Int64Counter
}

// NewUsageMetrics creates the usage engine's metric instruments
func NewUsageMetrics(mp *MeterProvider) (*UsageMetrics, error) {
	meter := mp.Meter("screentime.usage")

	eventsIngested, err := meter.Int64Counter("usage.events_ingested",
		metric.WithDescription("Usage events accepted and stored"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events_ingested counter: %w", err)
	}
	eventsDeduped, err := meter.Int64Counter("usage.events_deduplicated",
		metric.WithDescription("Usage events collapsed onto an existing record"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events_deduplicated counter: %w", err)
	}
	snapshotsSynced, err := meter.Int64Counter("usage.snapshots_synced",
		metric.WithDescription("Daily snapshot entries upserted"))
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshots_synced counter: %w", err)
	}
	snapshotsRejected, err := meter.Int64Counter("usage.snapshots_rejected",
		metric.WithDescription("Daily snapshot entries rejected during sync"))
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshots_rejected counter: %w", err)
	}
	insightsGenerated, err := meter.Int64Counter("usage.insights_generated",
		metric.WithDescription("Insights emitted by the detector battery"))
	if err != nil {
		return nil, fmt.Errorf("failed to create insights_generated counter: %w", err)
	}

	return &UsageMetrics{
		eventsIngested:    eventsIngested,
		eventsDeduped:     eventsDeduped,
		snapshotsSynced:   snapshotsSynced,
		snapshotsRejected: snapshotsRejected,
		insightsGenerated: insightsGenerated,
	}, nil
}

// RecordEventIngested counts a stored usage event
func (m *UsageMetrics) RecordEventIngested(ctx context.Context, clamped bool) {
	m.eventsIngested.Add(ctx, 1, metric.WithAttributes(attribute.Bool("clamped", clamped)))
}

// RecordEventDeduplicated counts a collapsed duplicate
func (m *UsageMetrics) RecordEventDeduplicated(ctx context.Context) {
	m.eventsDeduped.Add(ctx, 1)
}

// RecordSnapshotSync counts the outcome of a snapshot batch
func (m *UsageMetrics) RecordSnapshotSync(ctx context.Context, synced, rejected int) {
	m.snapshotsSynced.Add(ctx, int64(synced))
	m.snapshotsRejected.Add(ctx, int64(rejected))
}

// RecordInsights counts emitted insights by type
func (m *UsageMetrics) RecordInsights(ctx context.Context, insightTypes []string) {
	for _, t := range insightTypes {
		m.insightsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("type", t)))
	}
}
