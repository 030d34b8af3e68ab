package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pipekit"

// Metrics holds all PipeKit metric instruments.
type Metrics struct {
	ProcessesStarted   metric.Int64Counter
	ProcessesCompleted metric.Int64Counter
	ProcessesFailed    metric.Int64Counter
	ProcessesKilled    metric.Int64Counter
	StepsExecuted      metric.Int64Counter
	FallbacksUsed      metric.Int64Counter
	ProcessDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ProcessesStarted, err = meter.Int64Counter("pipekit.processes.started",
		metric.WithDescription("Number of processes started"))
	if err != nil {
		return nil, err
	}

	m.ProcessesCompleted, err = meter.Int64Counter("pipekit.processes.completed",
		metric.WithDescription("Number of processes completed"))
	if err != nil {
		return nil, err
	}

	m.ProcessesFailed, err = meter.Int64Counter("pipekit.processes.failed",
		metric.WithDescription("Number of processes failed"))
	if err != nil {
		return nil, err
	}

	m.ProcessesKilled, err = meter.Int64Counter("pipekit.processes.killed",
		metric.WithDescription("Number of processes killed"))
	if err != nil {
		return nil, err
	}

	m.StepsExecuted, err = meter.Int64Counter("pipekit.steps.executed",
		metric.WithDescription("Number of pipeline steps executed"))
	if err != nil {
		return nil, err
	}

	m.FallbacksUsed, err = meter.Int64Counter("pipekit.backend.fallbacks",
		metric.WithDescription("Number of executions served by the fallback backend"))
	if err != nil {
		return nil, err
	}

	m.ProcessDuration, err = meter.Float64Histogram("pipekit.process.duration_seconds",
		metric.WithDescription("Process duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
