package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Audit write results recorded by RecordAuditWrite.
const (
	AuditWriteStored  = "stored"
	AuditWriteFailed  = "failed"
	AuditWriteTimeout = "timeout"
)

// BusinessMetrics records use-case level metrics.
//
// Domain examples: "auth", "doctors", "assessments", "audit".
// Operation examples: "login", "doctor_create", "assessment_update".
// Status is "success" or "error".
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordAuditWrite counts audit persistence attempts by result (stored, failed, timeout).
	// Failed and timed out writes never reach the client, so this counter is the only
	// signal that the audit trail has gaps.
	RecordAuditWrite(ctx context.Context, result string)

	// RecordCorruptRecord counts stored records whose encrypted fields failed to open.
	RecordCorruptRecord(ctx context.Context, recordType string)
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	auditCounter     metric.Int64Counter
	corruptCounter   metric.Int64Counter
}

// NewBusinessMetrics creates a BusinessMetrics backed by the given meter provider.
// The namespace prefixes every metric name (e.g., "careportal").
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	auditCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_writes_total", namespace),
		metric.WithDescription("Total number of audit log persistence attempts by result"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit write counter: %w", err)
	}

	corruptCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_corrupt_records_total", namespace),
		metric.WithDescription("Total number of stored records with unreadable encrypted fields"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create corrupt record counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		auditCounter:     auditCounter,
		corruptCounter:   corruptCounter,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordAuditWrite(ctx context.Context, result string) {
	b.auditCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (b *businessMetrics) RecordCorruptRecord(ctx context.Context, recordType string) {
	b.corruptCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("record_type", recordType)))
}

// NoOpBusinessMetrics is used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

func (n *NoOpBusinessMetrics) RecordAuditWrite(ctx context.Context, result string) {}

func (n *NoOpBusinessMetrics) RecordCorruptRecord(ctx context.Context, recordType string) {}
