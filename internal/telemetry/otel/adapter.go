package otel

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"confplane/internal/changelog"
)

// NewChangeEmitter returns a changelog.Emitter that sends config-change events
// as OTel log records via the given LoggerProvider. If provider is nil, returns
// a no-op emitter.
func NewChangeEmitter(provider *sdklog.LoggerProvider) changelog.Emitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("confplane.changelog")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *changelog.ChangeEvent) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the change event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event *changelog.ChangeEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.OccurredAt.IsZero() {
		rec.SetTimestamp(event.OccurredAt)
	}
	rec.SetBody(otellog.StringValue(string(event.Action) + " " + event.Kind + " " + event.Key))
	rec.AddAttributes(
		otellog.String("kind", event.Kind),
		otellog.String("action", string(event.Action)),
		otellog.String("record_id", event.RecordID),
		otellog.String("key", event.Key),
		otellog.String("scope_type", event.ScopeType),
	)
	if event.RegionID != "" {
		rec.AddAttributes(otellog.String("region_id", event.RegionID))
	}
	if event.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", event.OrgID))
	}
	if event.ServiceCategoryID != "" {
		rec.AddAttributes(otellog.String("service_category_id", event.ServiceCategoryID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
