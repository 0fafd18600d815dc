// Package metrics declares the application's OpenTelemetry instruments. The
// serve command wires a prometheus exporter into the meter provider, so every
// instrument here ends up on the /metrics endpoint.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Metrics bundles the counters and histograms recorded by the services.
type Metrics struct {
	accessChecks   metric.Int64Counter
	checkIns       metric.Int64Counter
	reports        metric.Int64Counter
	reportDuration metric.Float64Histogram
}

// New creates the application instruments on the given meter provider.
func New(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("checkin")

	accessChecks, err := meter.Int64Counter("access_checks_total",
		metric.WithDescription("Access evaluations at check-in time, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("could not create access_checks_total: %w", err)
	}

	checkIns, err := meter.Int64Counter("checkins_total",
		metric.WithDescription("Successfully recorded check-ins"))
	if err != nil {
		return nil, fmt.Errorf("could not create checkins_total: %w", err)
	}

	reports, err := meter.Int64Counter("exposure_reports_total",
		metric.WithDescription("Generated exposure reports"))
	if err != nil {
		return nil, fmt.Errorf("could not create exposure_reports_total: %w", err)
	}

	reportDuration, err := meter.Float64Histogram("exposure_report_duration_seconds",
		metric.WithDescription("Time spent generating exposure reports"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create exposure_report_duration_seconds: %w", err)
	}

	return &Metrics{
		accessChecks:   accessChecks,
		checkIns:       checkIns,
		reports:        reports,
		reportDuration: reportDuration,
	}, nil
}

// RecordAccessCheck counts one access evaluation with its outcome.
func (m *Metrics) RecordAccessCheck(ctx context.Context, granted bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	m.accessChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCheckIn counts one recorded visit.
func (m *Metrics) RecordCheckIn(ctx context.Context) {
	if m == nil {
		return
	}
	m.checkIns.Add(ctx, 1)
}

// RecordReport counts one generated report and its duration in seconds.
func (m *Metrics) RecordReport(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.reports.Add(ctx, 1)
	m.reportDuration.Record(ctx, seconds)
}
