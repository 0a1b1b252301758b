package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrOperation = "operation"
	attrService   = "service"
	attrStatus    = "status"
	attrResult    = "result"
	attrDecision  = "decision"
	attrTool      = "tool"
)

// Metrics provides methods for recording observability metrics. The zero
// value records nothing.
type Metrics struct {
	// Gate metrics
	gateDecisionsTotal    metric.Int64Counter
	scopeResolutionsTotal metric.Int64Counter

	// Credential lifecycle metrics
	credentialRefreshTotal    metric.Int64Counter
	credentialRefreshDuration metric.Float64Histogram
	consentFlowsTotal         metric.Int64Counter
	credentialFallbacksTotal  metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.gateDecisionsTotal, err = meter.Int64Counter(
		"gate_decisions_total",
		metric.WithDescription("Total number of capability gate decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate_decisions_total counter: %w", err)
	}

	m.scopeResolutionsTotal, err = meter.Int64Counter(
		"scope_resolutions_total",
		metric.WithDescription("Total number of service selection resolutions"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope_resolutions_total counter: %w", err)
	}

	m.credentialRefreshTotal, err = meter.Int64Counter(
		"credential_refresh_total",
		metric.WithDescription("Total number of token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential_refresh_total counter: %w", err)
	}

	m.credentialRefreshDuration, err = meter.Float64Histogram(
		"credential_refresh_duration_seconds",
		metric.WithDescription("Token refresh duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential_refresh_duration_seconds histogram: %w", err)
	}

	m.consentFlowsTotal, err = meter.Int64Counter(
		"consent_flows_total",
		metric.WithDescription("Total number of consent flow attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consent_flows_total counter: %w", err)
	}

	m.credentialFallbacksTotal, err = meter.Int64Counter(
		"credential_fallbacks_total",
		metric.WithDescription("Total number of still-valid tokens handed out after a transient refresh failure"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential_fallbacks_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordGateDecision records a capability gate decision for a service.
// Decision is DecisionAdmitted or DecisionDenied.
func (m *Metrics) RecordGateDecision(ctx context.Context, service, decision string) {
	if m.gateDecisionsTotal == nil {
		return
	}
	m.gateDecisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrDecision, decision),
	))
}

// RecordScopeResolution records one resolution of the service selection.
func (m *Metrics) RecordScopeResolution(ctx context.Context, status string) {
	if m.scopeResolutionsTotal == nil {
		return
	}
	m.scopeResolutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, status),
	))
}

// RecordCredentialRefresh records a token refresh attempt with its result
// and duration. Result is one of the RefreshResult constants.
func (m *Metrics) RecordCredentialRefresh(ctx context.Context, result string, duration time.Duration) {
	if m.credentialRefreshTotal == nil || m.credentialRefreshDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrResult, result))
	m.credentialRefreshTotal.Add(ctx, 1, attrs)
	m.credentialRefreshDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordConsentFlow records a consent flow attempt with its result.
func (m *Metrics) RecordConsentFlow(ctx context.Context, result string) {
	if m.consentFlowsTotal == nil {
		return
	}
	m.consentFlowsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrResult, result),
	))
}

// RecordCredentialFallback records one handout of a still-valid token after
// a transient refresh failure.
func (m *Metrics) RecordCredentialFallback(ctx context.Context) {
	if m.credentialFallbacksTotal == nil {
		return
	}
	m.credentialFallbacksTotal.Add(ctx, 1)
}

// RecordToolInvocation records an MCP tool invocation with tool name,
// status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation with service,
// operation, status, and duration.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}
