package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordGateDecision(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordGateDecision(ctx, "calendar", DecisionAdmitted)
	metrics.RecordGateDecision(ctx, "gmail", DecisionDenied)
}

func TestMetrics_RecordScopeResolution(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordScopeResolution(ctx, StatusSuccess)
	metrics.RecordScopeResolution(ctx, StatusError)
}

func TestMetrics_RecordCredentialRefresh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordCredentialRefresh(ctx, RefreshResultSuccess, 200*time.Millisecond)
	metrics.RecordCredentialRefresh(ctx, RefreshResultTransient, 30*time.Second)
	metrics.RecordCredentialRefresh(ctx, RefreshResultReauth, 100*time.Millisecond)
}

func TestMetrics_RecordConsentFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordConsentFlow(ctx, ConsentResultSuccess)
	metrics.RecordConsentFlow(ctx, ConsentResultDenied)
	metrics.RecordCredentialFallback(ctx)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordToolInvocation(ctx, "calendar_list_events", StatusSuccess, 100*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "gmail_send_email", StatusError, 50*time.Millisecond)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	metrics.RecordGoogleAPIOperation(ctx, "gmail", "list", StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, "calendar", "create", StatusError, 500*time.Millisecond)
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	// The zero value must be a no-op recorder, never a panic.
	metrics := &Metrics{}
	metrics.RecordGateDecision(ctx, "calendar", DecisionAdmitted)
	metrics.RecordScopeResolution(ctx, StatusSuccess)
	metrics.RecordCredentialRefresh(ctx, RefreshResultSuccess, time.Second)
	metrics.RecordConsentFlow(ctx, ConsentResultSuccess)
	metrics.RecordCredentialFallback(ctx)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, time.Second)
	metrics.RecordGoogleAPIOperation(ctx, "gmail", "list", StatusSuccess, time.Second)
}
