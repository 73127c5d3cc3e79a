// Package observe holds the OpenTelemetry metric instruments of the screener.
// Metrics are exported for scraping through the Prometheus bridge set up by
// InitProvider. A nil *Metrics is valid and records nothing, so components can
// run without metrics in tests.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "alfredoptarigan/voice-screener"

type Metrics struct {
	// SessionsStarted counts interviews whose countdown expired.
	SessionsStarted metric.Int64Counter
	// SessionsEnded counts terminated interviews. Use with attribute:
	//   attribute.String("outcome", ...)
	SessionsEnded metric.Int64Counter
	// ActiveSessions tracks live interview sessions.
	ActiveSessions metric.Int64UpDownCounter

	// Answers counts submitted answers. Use with attributes:
	//   attribute.String("phase", ...), attribute.String("status", ...)
	Answers metric.Int64Counter

	// Uploads counts settled document uploads. Use with attributes:
	//   attribute.String("document_type", ...), attribute.String("status", ...)
	Uploads metric.Int64Counter
	// UploadDuration tracks upload plus analysis latency.
	UploadDuration metric.Float64Histogram

	// PhaseTransitions counts phase changes. Use with attribute:
	//   attribute.String("phase", ...)
	PhaseTransitions metric.Int64Counter

	// AnalysisDuration tracks backend document analysis latency.
	AnalysisDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SessionsStarted, err = m.Int64Counter("screener.sessions.started",
		metric.WithDescription("Interviews that passed the countdown."),
	); err != nil {
		return nil, err
	}
	if met.SessionsEnded, err = m.Int64Counter("screener.sessions.ended",
		metric.WithDescription("Terminated interviews by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("screener.sessions.active",
		metric.WithDescription("Number of live interview sessions."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter("screener.answers",
		metric.WithDescription("Submitted answers by phase and status."),
	); err != nil {
		return nil, err
	}
	if met.Uploads, err = m.Int64Counter("screener.uploads",
		metric.WithDescription("Settled document uploads by document type and status."),
	); err != nil {
		return nil, err
	}
	if met.UploadDuration, err = m.Float64Histogram("screener.upload.duration",
		metric.WithDescription("Time from document submission to settlement."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PhaseTransitions, err = m.Int64Counter("screener.phase.transitions",
		metric.WithDescription("Interview phase transitions by target phase."),
	); err != nil {
		return nil, err
	}
	if met.AnalysisDuration, err = m.Float64Histogram("screener.analysis.duration",
		metric.WithDescription("Latency of document analysis in the backend."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsStarted.Add(ctx, 1)
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

// SessionClosed records a finished session with its outcome
// ("completed", "declined", "terminated").
func (m *Metrics) SessionClosed(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
	m.SessionsEnded.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordAnswer(ctx context.Context, phase, status string) {
	if m == nil {
		return
	}
	m.Answers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordUpload(ctx context.Context, documentType, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("document_type", documentType),
		attribute.String("status", status),
	)
	m.Uploads.Add(ctx, 1, attrs)
	m.UploadDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) RecordPhase(ctx context.Context, phase string) {
	if m == nil {
		return
	}
	m.PhaseTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", phase)))
}

func (m *Metrics) RecordAnalysis(ctx context.Context, documentType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("document_type", documentType)))
}
