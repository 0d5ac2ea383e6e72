package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
)

// Delete soft-deletes a resource: the current row becomes a tombstone, a
// tombstone version is appended to history, and the lookup rows are purged.
// Earlier versions stay readable through history.
func (r *Repository) Delete(ctx context.Context, rctx *Context, resourceType, id string) error {
	if !r.catalog.HasType(resourceType) {
		return fhir.ValidationError("unknown resource type %q", resourceType)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fhir.BadRequestError("invalid resource id %q", id)
	}
	if protectedResourceTypes[resourceType] && !rctx.SuperAdmin {
		return fhir.ForbiddenError("cannot delete protected resource type " + resourceType)
	}

	existing, err := r.currentRow(ctx, resourceType, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.deleted || !rctx.CanSee(existing.compartments) {
		return fhir.NotFoundError(resourceType, id)
	}

	now := fhir.Now()
	tombstone := r.tombstone(resourceType, id, existing.compartments, now)
	if err := r.commitVersion(ctx, tombstone, now, true, ""); err != nil {
		return err
	}

	r.cache.Delete(ctx, resourceType, id)
	r.notifier.Notify(ctx, "delete", tombstone)
	r.log.Info().
		Str("action", "delete").
		Str("resourceType", resourceType).
		Str("id", id).
		Msg("resource deleted")
	return nil
}

// tombstone builds the minimal resource recorded for a deletion: type, id,
// and a meta block carrying the new version and the preserved compartments.
func (r *Repository) tombstone(resourceType, id string, compartments []string, now time.Time) fhir.Resource {
	stored := make([]any, len(compartments))
	for i, c := range compartments {
		stored[i] = c
	}
	return fhir.Resource{
		"resourceType": resourceType,
		"id":           id,
		"meta": map[string]any{
			"versionId":   uuid.NewString(),
			"lastUpdated": now.Format(time.RFC3339Nano),
			"compartment": stored,
		},
	}
}
