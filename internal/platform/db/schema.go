package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/fhir/lookup"
)

// Migrate derives the full schema from the catalog and applies it: one
// current table and one history table per resource type, plus the lookup
// side tables. Statements are idempotent, so adding a type or a search
// parameter to the catalog migrates on the next start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, catalog *fhir.Catalog) error {
	var stmts []string
	for _, resourceType := range catalog.ResourceTypes() {
		stmts = append(stmts, resourceTableDDL(catalog, resourceType)...)
	}
	for _, table := range lookup.All() {
		stmts = append(stmts, table.DDL()...)
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

// resourceTableDDL builds the statements for one resource type. Search
// parameter columns are added with ALTER TABLE so existing deployments pick
// up new catalog parameters.
func resourceTableDDL(catalog *fhir.Catalog, resourceType string) []string {
	table := strings.ToLower(resourceType)
	history := table + "_history"

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			last_updated TIMESTAMPTZ NOT NULL,
			compartments TEXT[] NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT FALSE,
			content TEXT NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_compartments_idx ON %s USING GIN (compartments)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_last_updated_idx ON %s (last_updated)`, table, table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			version_id UUID PRIMARY KEY,
			id UUID NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL,
			content TEXT NOT NULL
		)`, history),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_id_idx ON %s (id)`, history, history),
	}

	for _, p := range catalog.Params(resourceType) {
		if p.Expression == "" {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(
			`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`,
			table, p.ColumnName(), columnType(p),
		))
	}
	return stmts
}

func columnType(p *fhir.SearchParameter) string {
	switch {
	case p.Array:
		return "TEXT[]"
	case p.Type == fhir.SearchParamNumber:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}
