// Package changelog publishes configuration change events so external systems
// (audit pipelines, ops tooling) can observe writes without coupling to the
// engine. Emission is best-effort and never blocks or fails a write.
package changelog

import (
	"context"
	"errors"
	"time"
)

// Action is the administrative write that produced the event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent describes one create/update/delete of a scoped record.
type ChangeEvent struct {
	Kind              string    `json:"kind"` // feature_flag | runtime_policy
	Action            Action    `json:"action"`
	RecordID          string    `json:"recordId"`
	Key               string    `json:"key"`
	ScopeType         string    `json:"scopeType"`
	RegionID          string    `json:"regionId,omitempty"`
	OrgID             string    `json:"orgId,omitempty"`
	ServiceCategoryID string    `json:"serviceCategoryId,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// Emitter sends one change event. Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, event *ChangeEvent) error
}

// Fanout returns an Emitter that sends each event to all of emitters, skipping
// nils. All emitters are attempted even when one fails.
func Fanout(emitters ...Emitter) Emitter {
	out := make(multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multi []Emitter

func (m multi) Emit(ctx context.Context, event *ChangeEvent) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
