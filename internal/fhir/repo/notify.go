package repo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medcore/fhirstore/internal/fhir"
)

// Notifier receives change events after a write transaction commits.
// Implementations must not block; slow delivery belongs in the implementation.
type Notifier interface {
	Notify(ctx context.Context, action string, resource fhir.Resource)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, fhir.Resource) {}

// LogNotifier writes one structured log line per change event.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, action string, resource fhir.Resource) {
	n.Log.Info().
		Str("action", action).
		Str("resourceType", resource.Type()).
		Str("id", resource.ID()).
		Str("versionId", resource.VersionID()).
		Msg("resource changed")
}
