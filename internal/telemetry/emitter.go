package telemetry

import (
	"context"
	"errors"

	"portfolio-client/internal/telemetry/domain"
)

// EventEmitter emits session events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.SessionEvent) error
}

// MultiEmitter fans an event out to every non-nil emitter. All emitters are
// attempted; their errors are joined.
type MultiEmitter []EventEmitter

// Emit sends event to each emitter in order.
func (m MultiEmitter) Emit(ctx context.Context, event *domain.SessionEvent) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
