package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

const writeRetries = 3

// Create stores a new resource. The server assigns the id unless the caller
// is privileged and supplied one.
func (r *Repository) Create(ctx context.Context, rctx *Context, res fhir.Resource) (fhir.Resource, error) {
	return r.writeResource(ctx, rctx, res, true)
}

// Update replaces the current version of an existing resource, creating a
// new version in history. Updating a nonexistent id is allowed only for
// privileged callers; everyone else gets not found.
func (r *Repository) Update(ctx context.Context, rctx *Context, res fhir.Resource) (fhir.Resource, error) {
	return r.writeResource(ctx, rctx, res, false)
}

// Patch applies a JSON Patch to the current version and stores the result
// as an update. The patch may not change the resource's type or id.
func (r *Repository) Patch(ctx context.Context, rctx *Context, resourceType, id string, ops []fhir.PatchOperation) (fhir.Resource, error) {
	existing, err := r.Read(ctx, rctx, resourceType, id)
	if err != nil {
		return nil, err
	}
	patched, err := fhir.ApplyPatch(existing, ops)
	if err != nil {
		return nil, err
	}
	if patched.Type() != resourceType || patched.ID() != id {
		return nil, fhir.BadRequestError("patch may not change resourceType or id")
	}
	return r.writeResource(ctx, rctx, patched, false)
}

func (r *Repository) writeResource(ctx context.Context, rctx *Context, input fhir.Resource, create bool) (fhir.Resource, error) {
	if err := r.catalog.Validate(input); err != nil {
		return nil, err
	}
	resourceType := input.Type()
	if protectedResourceTypes[resourceType] && !rctx.SuperAdmin {
		return nil, fhir.ForbiddenError("cannot write protected resource type " + resourceType)
	}

	res := input.Clone()
	if create {
		if res.ID() == "" || !rctx.Privileged() {
			res.SetID(uuid.NewString())
		}
	}
	if res.ID() == "" {
		return nil, fhir.BadRequestError("missing resource id")
	}
	if _, err := uuid.Parse(res.ID()); err != nil {
		return nil, fhir.BadRequestError("invalid resource id %q", res.ID())
	}

	existing, err := r.currentRow(ctx, resourceType, res.ID())
	if err != nil {
		return nil, err
	}
	// Tombstone rows keep their compartments, so deleted resources stay
	// invisible outside their tenant just like live ones.
	if existing != nil && !rctx.CanSee(existing.compartments) {
		return nil, fhir.NotFoundError(resourceType, res.ID())
	}
	if !create && existing == nil && !rctx.Privileged() {
		return nil, fhir.NotFoundError(resourceType, res.ID())
	}

	// Optimistic concurrency: a caller-supplied versionId must match the
	// stored current version. This is a fast pre-check; commitVersion
	// rechecks inside the transaction. The precondition only binds against
	// a live current row, never a fresh create or a tombstone restore.
	expectVersion := ""
	if want := res.VersionID(); want != "" && existing != nil && existing.resource != nil {
		if got := existing.resource.VersionID(); got != want {
			return nil, fhir.ConflictError("version mismatch for %s/%s: expected %s, found %s",
				resourceType, res.ID(), want, got)
		}
		expectVersion = want
	}

	now := fhir.Now()
	r.buildMeta(rctx, res, now)

	if existing != nil && !existing.deleted && fhir.ContentEqual(existing.resource, res) {
		return nil, fhir.NotModified(existing.resource)
	}

	if err := r.commitVersion(ctx, res, now, false, expectVersion); err != nil {
		return nil, err
	}

	r.cache.Set(ctx, res)
	action := "update"
	if existing == nil {
		action = "create"
	}
	r.notifier.Notify(ctx, action, res)
	r.log.Info().
		Str("action", action).
		Str("resourceType", resourceType).
		Str("id", res.ID()).
		Str("versionId", res.VersionID()).
		Msg("resource written")
	return res, nil
}

// buildMeta stamps the server-managed meta fields. Privileged callers may
// pin lastUpdated and author; everything else is always recomputed.
func (r *Repository) buildMeta(rctx *Context, res fhir.Resource, now time.Time) {
	meta := res.Meta()
	meta["versionId"] = uuid.NewString()

	if s, _ := meta["lastUpdated"].(string); s == "" || !rctx.Privileged() {
		meta["lastUpdated"] = now.Format(time.RFC3339Nano)
	}

	project := pinnedProject(res.Type())
	if project == "" {
		if s, _ := meta["project"].(string); s != "" && rctx.SuperAdmin {
			project = s
		} else {
			project = rctx.Project
		}
	}
	meta["project"] = project

	if s, _ := meta["author"].(string); s == "" || !rctx.Privileged() {
		meta["author"] = rctx.Author
	}
	if rctx.OnBehalfOf != "" {
		meta["onBehalfOf"] = rctx.OnBehalfOf
	} else {
		delete(meta, "onBehalfOf")
	}

	compartments := fhir.Compartments(res, project)
	stored := make([]any, len(compartments))
	for i, c := range compartments {
		stored[i] = c
	}
	meta["compartment"] = stored
}

// commitVersion writes the current row, its history row, and the lookup
// index rows in one serializable transaction, retrying on serialization
// failures. A non-empty expectVersion is rechecked against the stored
// current version inside the transaction, where a concurrent writer cannot
// slip between the check and the commit.
func (r *Repository) commitVersion(ctx context.Context, res fhir.Resource, now time.Time, deleted bool, expectVersion string) error {
	content := ""
	if !deleted {
		data, err := json.Marshal(res)
		if err != nil {
			return fhir.InternalError(fmt.Errorf("encode %s/%s: %w", res.Type(), res.ID(), err))
		}
		content = string(data)
	}

	op := func() error {
		tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		if expectVersion != "" {
			if err := checkVersionPrecondition(ctx, tx, res.Type(), res.ID(), expectVersion); err != nil {
				return err
			}
		}

		insert := sqlb.Insert(tableName(res.Type())).
			Value("id", res.ID()).
			Value("last_updated", now).
			Value("compartments", res.CompartmentIDs()).
			Value("deleted", deleted).
			Value("content", content)
		r.addParamValues(insert, res, deleted)
		sql, args := insert.OnConflictUpdate("id").SQL()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("write current row: %w", err)
		}

		sql, args = sqlb.Insert(historyTableName(res.Type())).
			Value("version_id", res.VersionID()).
			Value("id", res.ID()).
			Value("last_updated", now).
			Value("content", content).
			SQL()
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}

		for _, table := range r.lookups {
			if deleted {
				err = table.DeleteRows(ctx, tx, res.ID())
			} else {
				err = table.Index(ctx, tx, res.ID(), res)
			}
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	}

	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !retryableWrite(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), writeRetries), ctx))
	if err != nil {
		if fhir.KindOf(err) == fhir.OutcomeConflict {
			return err
		}
		return fhir.InternalError(fmt.Errorf("commit %s/%s: %w", res.Type(), res.ID(), err))
	}
	return nil
}

// checkVersionPrecondition rereads the stored current version inside the
// write transaction and fails with Conflict when it no longer matches.
func checkVersionPrecondition(ctx context.Context, tx pgx.Tx, resourceType, id, expect string) error {
	sql, args := sqlb.Select(tableName(resourceType), "content").
		Where("id", sqlb.OpEqual, id).
		SQL()

	var content string
	err := tx.QueryRow(ctx, sql, args...).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return fhir.ConflictError("version mismatch for %s/%s: resource was removed", resourceType, id)
	}
	if err != nil {
		return fmt.Errorf("recheck version %s/%s: %w", resourceType, id, err)
	}
	if content == "" {
		return fhir.ConflictError("version mismatch for %s/%s: resource was deleted", resourceType, id)
	}

	stored, err := fhir.ParseResource([]byte(content))
	if err != nil {
		return fmt.Errorf("decode %s/%s: %w", resourceType, id, err)
	}
	if got := stored.VersionID(); got != expect {
		return fhir.ConflictError("version mismatch for %s/%s: expected %s, found %s",
			resourceType, id, expect, got)
	}
	return nil
}

// addParamValues fills the flat search parameter columns from the resource
// content. Tombstones null every column.
func (r *Repository) addParamValues(insert *sqlb.InsertQuery, res fhir.Resource, deleted bool) {
	for _, p := range r.catalog.Params(res.Type()) {
		if p.Expression == "" {
			continue
		}
		if deleted {
			insert.Value(p.ColumnName(), nil)
			continue
		}
		values := fhir.EvalExpression(res, p.Expression)
		switch {
		case p.Array:
			insert.Value(p.ColumnName(), values)
		case len(values) == 0:
			insert.Value(p.ColumnName(), nil)
		case p.Type == fhir.SearchParamNumber:
			if f, err := strconv.ParseFloat(values[0], 64); err == nil {
				insert.Value(p.ColumnName(), f)
			} else {
				insert.Value(p.ColumnName(), nil)
			}
		default:
			insert.Value(p.ColumnName(), values[0])
		}
	}
}

// retryableWrite reports whether a transaction failed on a transient
// serialization conflict.
func retryableWrite(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
