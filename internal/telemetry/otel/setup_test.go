package otel

import (
	"context"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name             string
		endpoint         string
		insecureOverride bool
		wantTarget       string
		wantInsecure     bool
		wantErr          bool
	}{
		{"bare host:port", "localhost:4317", false, "localhost:4317", true, false},
		{"http url", "http://collector:4317", false, "collector:4317", true, false},
		{"https url", "https://collector:4317", false, "collector:4317", false, false},
		{"https with override", "https://collector:4317", true, "collector:4317", true, false},
		{"url with path", "http://collector:4317/v1/traces", false, "collector:4317", true, false},
		{"missing host", "http://", false, "", false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target, insecure, err := parseEndpoint(tc.endpoint, tc.insecureOverride)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseEndpoint(%q) should return error", tc.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEndpoint(%q): %v", tc.endpoint, err)
			}
			if target != tc.wantTarget {
				t.Errorf("target = %q, want %q", target, tc.wantTarget)
			}
			if insecure != tc.wantInsecure {
				t.Errorf("insecure = %v, want %v", insecure, tc.wantInsecure)
			}
		})
	}
}

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "confplane", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
		t.Fatal("no-op providers must still be non-nil")
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewProviders_WhitespaceEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "   ", "confplane", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
