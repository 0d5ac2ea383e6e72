// Package repo implements the versioned, multi-tenant resource store. Every
// operation takes a security Context and returns either a resource or a
// typed outcome error; infrastructure failures are wrapped, never swallowed.
package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/fhir/lookup"
)

// The project compartments pinned by resource type. Definitional resources
// are readable by every tenant; platform resources are writable only by
// super admins.
const (
	publicProject    = "public"
	protectedProject = "protected"
)

var publicResourceTypes = map[string]bool{
	"StructureDefinition": true,
	"SearchParameter":     true,
	"ValueSet":            true,
}

var protectedResourceTypes = map[string]bool{
	"Project": true,
	"User":    true,
	"Login":   true,
}

// DB is the query surface the repository needs. *pgxpool.Pool satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository is the resource store. Safe for concurrent use.
type Repository struct {
	db       DB
	catalog  *fhir.Catalog
	lookups  []lookup.Table
	cache    *Cache
	notifier Notifier
	log      zerolog.Logger
}

// New constructs a Repository. cache may be nil to disable read-through
// caching; notifier may be nil to disable change notifications.
func New(db DB, catalog *fhir.Catalog, cache *Cache, notifier Notifier, log zerolog.Logger) *Repository {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Repository{
		db:       db,
		catalog:  catalog,
		lookups:  lookup.All(),
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

// Catalog exposes the schema catalog backing this repository.
func (r *Repository) Catalog() *fhir.Catalog { return r.catalog }

// tableName maps a resource type to its current-version table.
func tableName(resourceType string) string {
	return strings.ToLower(resourceType)
}

// historyTableName maps a resource type to its version-history table.
func historyTableName(resourceType string) string {
	return tableName(resourceType) + "_history"
}

// pinnedProject returns the fixed project compartment for resource types
// that are not tenant-owned, or "" for ordinary types.
func pinnedProject(resourceType string) string {
	switch {
	case publicResourceTypes[resourceType]:
		return publicProject
	case protectedResourceTypes[resourceType]:
		return protectedProject
	default:
		return ""
	}
}
