package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

// Read returns the current version of a resource. Resources outside the
// caller's visibility and soft-deleted resources both read as not found.
func (r *Repository) Read(ctx context.Context, rctx *Context, resourceType, id string) (fhir.Resource, error) {
	if !r.catalog.HasType(resourceType) {
		return nil, fhir.ValidationError("unknown resource type %q", resourceType)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fhir.BadRequestError("invalid resource id %q", id)
	}

	if cached := r.cache.Get(ctx, resourceType, id); cached != nil {
		if !rctx.CanSee(cached.CompartmentIDs()) {
			return nil, fhir.NotFoundError(resourceType, id)
		}
		return cached, nil
	}

	row, err := r.currentRow(ctx, resourceType, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.deleted || !rctx.CanSee(row.compartments) {
		return nil, fhir.NotFoundError(resourceType, id)
	}

	r.cache.Set(ctx, row.resource)
	return row.resource, nil
}

// ReadByReference resolves a reference string like "Patient/123".
func (r *Repository) ReadByReference(ctx context.Context, rctx *Context, ref string) (fhir.Resource, error) {
	resourceType, id := fhir.ParseReference(ref)
	if resourceType == "" {
		return nil, fhir.BadRequestError("invalid reference %q", ref)
	}
	return r.Read(ctx, rctx, resourceType, id)
}

// currentRow is the raw state of a current-table row, soft deletes included.
type currentRow struct {
	resource     fhir.Resource
	compartments []string
	deleted      bool
}

// currentRow reads a current-table row directly, bypassing cache and
// visibility rules. Returns nil when no row exists.
func (r *Repository) currentRow(ctx context.Context, resourceType, id string) (*currentRow, error) {
	table := tableName(resourceType)
	sql, args := sqlb.Select(table, "content", "compartments", "deleted").
		Where("id", sqlb.OpEqual, id).
		SQL()

	var content string
	var row currentRow
	err := r.db.QueryRow(ctx, sql, args...).Scan(&content, &row.compartments, &row.deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fhir.InternalError(fmt.Errorf("read %s/%s: %w", resourceType, id, err))
	}

	if !row.deleted {
		row.resource, err = fhir.ParseResource([]byte(content))
		if err != nil {
			return nil, fhir.InternalError(fmt.Errorf("decode %s/%s: %w", resourceType, id, err))
		}
	}
	return &row, nil
}
