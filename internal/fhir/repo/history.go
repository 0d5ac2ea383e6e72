package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

// HistoryEntry is one stored version of a resource. Deleted entries mark the
// point a resource was removed and carry no content.
type HistoryEntry struct {
	VersionID   string
	LastUpdated time.Time
	Deleted     bool
	Resource    fhir.Resource
}

// ReadHistory returns the version history of a resource, newest first.
// Visibility is checked against the current row; versions whose recorded
// compartments exclude the caller are filtered out.
func (r *Repository) ReadHistory(ctx context.Context, rctx *Context, resourceType, id string) ([]HistoryEntry, error) {
	if !r.catalog.HasType(resourceType) {
		return nil, fhir.ValidationError("unknown resource type %q", resourceType)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fhir.BadRequestError("invalid resource id %q", id)
	}

	current, err := r.currentRow(ctx, resourceType, id)
	if err != nil {
		return nil, err
	}
	if current == nil || !rctx.CanSee(current.compartments) {
		return nil, fhir.NotFoundError(resourceType, id)
	}

	sql, args := sqlb.Select(historyTableName(resourceType), "version_id", "last_updated", "content").
		Where("id", sqlb.OpEqual, id).
		OrderBy("last_updated", true).
		SQL()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fhir.InternalError(fmt.Errorf("read history %s/%s: %w", resourceType, id, err))
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var content string
		if err := rows.Scan(&entry.VersionID, &entry.LastUpdated, &content); err != nil {
			return nil, fhir.InternalError(fmt.Errorf("scan history %s/%s: %w", resourceType, id, err))
		}
		if content == "" {
			entry.Deleted = true
			entries = append(entries, entry)
			continue
		}
		res, err := fhir.ParseResource([]byte(content))
		if err != nil {
			return nil, fhir.InternalError(fmt.Errorf("decode history %s/%s: %w", resourceType, id, err))
		}
		if !rctx.CanSee(res.CompartmentIDs()) {
			continue
		}
		entry.Resource = res
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fhir.InternalError(fmt.Errorf("read history %s/%s: %w", resourceType, id, err))
	}
	return entries, nil
}

// ReadVersion returns one specific stored version. Tombstone versions and
// versions outside the caller's visibility read as not found.
func (r *Repository) ReadVersion(ctx context.Context, rctx *Context, resourceType, id, versionID string) (fhir.Resource, error) {
	if !r.catalog.HasType(resourceType) {
		return nil, fhir.ValidationError("unknown resource type %q", resourceType)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fhir.BadRequestError("invalid resource id %q", id)
	}
	if _, err := uuid.Parse(versionID); err != nil {
		return nil, fhir.BadRequestError("invalid version id %q", versionID)
	}

	sql, args := sqlb.Select(historyTableName(resourceType), "content").
		Where("id", sqlb.OpEqual, id).
		Where("version_id", sqlb.OpEqual, versionID).
		SQL()

	var content string
	err := r.db.QueryRow(ctx, sql, args...).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fhir.NotFoundError(resourceType, id)
	}
	if err != nil {
		return nil, fhir.InternalError(fmt.Errorf("read version %s/%s/%s: %w", resourceType, id, versionID, err))
	}
	if content == "" {
		return nil, fhir.NotFoundError(resourceType, id)
	}

	res, err := fhir.ParseResource([]byte(content))
	if err != nil {
		return nil, fhir.InternalError(fmt.Errorf("decode version %s/%s/%s: %w", resourceType, id, versionID, err))
	}
	if !rctx.CanSee(res.CompartmentIDs()) {
		return nil, fhir.NotFoundError(resourceType, id)
	}
	return res, nil
}
