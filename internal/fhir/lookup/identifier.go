package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

const identifierTable = "fhir_identifier"

// IdentifierTable indexes business identifiers: one row per identifier entry
// with its system and value. Search values use the token form, either a bare
// value or "system|value".
type IdentifierTable struct{}

func (t *IdentifierTable) Name() string { return identifierTable }

func (t *IdentifierTable) Claims(p *fhir.SearchParameter) bool {
	return p.Type == fhir.SearchParamToken && p.Code == "identifier"
}

func (t *IdentifierTable) AddJoin(q *sqlb.SelectQuery, resourceTable string) {
	q.Join(identifierTable, joinOn(identifierTable, resourceTable))
}

func (t *IdentifierTable) AddFilter(q *sqlb.SelectQuery, p *fhir.SearchParameter, f fhir.Filter) error {
	system, value := splitToken(f.Value)
	switch f.Operator {
	case fhir.OpEquals:
		if system != "" {
			q.Where(identifierTable+".system", sqlb.OpEqual, system)
		}
		if value != "" {
			q.Where(identifierTable+".value", sqlb.OpEqual, value)
		}
	case fhir.OpNotEquals, fhir.OpNot:
		q.Where(identifierTable+".value", sqlb.OpNotEqual, value)
	case fhir.OpText:
		q.Where(identifierTable+".value", sqlb.OpILike, "%"+likeEscape(value)+"%")
	default:
		return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
	}
	return nil
}

func (t *IdentifierTable) AddSort(q *sqlb.SelectQuery, p *fhir.SearchParameter, rule fhir.SortRule) {
	q.OrderBy(identifierTable+".value", rule.Descending)
}

func (t *IdentifierTable) Index(ctx context.Context, db Execer, resourceID string, r fhir.Resource) error {
	if err := t.DeleteRows(ctx, db, resourceID); err != nil {
		return err
	}
	for _, ident := range fhir.DecodeField[fhir.Identifier](r, "identifier") {
		sql, args := sqlb.Insert(identifierTable).
			Value("id", uuid.NewString()).
			Value("resource_id", resourceID).
			Value("system", ident.System).
			Value("value", ident.Value).
			SQL()
		if _, err := db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("index identifier: %w", err)
		}
	}
	return nil
}

func (t *IdentifierTable) DeleteRows(ctx context.Context, db Execer, resourceID string) error {
	sql, args := sqlb.Delete(identifierTable).Where("resource_id", sqlb.OpEqual, resourceID).SQL()
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete identifier rows: %w", err)
	}
	return nil
}

func (t *IdentifierTable) DDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS fhir_identifier (
			id UUID PRIMARY KEY,
			resource_id UUID NOT NULL,
			system TEXT,
			value TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS fhir_identifier_resource_idx ON fhir_identifier (resource_id)`,
		`CREATE INDEX IF NOT EXISTS fhir_identifier_value_idx ON fhir_identifier (system, value)`,
	}
}

// splitToken parses a token search value into its system and value parts.
// A bare value has no system constraint.
func splitToken(v string) (system, value string) {
	if i := strings.Index(v, "|"); i >= 0 {
		return v[:i], v[i+1:]
	}
	return "", v
}
