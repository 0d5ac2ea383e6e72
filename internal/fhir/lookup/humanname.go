package lookup

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

const humanNameTable = "fhir_humanname"

// HumanNameTable indexes the "name" field: one row per name entry with the
// formatted whole name plus the given and family parts.
type HumanNameTable struct{}

func (t *HumanNameTable) Name() string { return humanNameTable }

var humanNameColumns = map[string]string{
	"name":   "name",
	"family": "family",
	"given":  "given",
}

func (t *HumanNameTable) Claims(p *fhir.SearchParameter) bool {
	if p.Type != fhir.SearchParamString {
		return false
	}
	_, ok := humanNameColumns[p.Code]
	return ok
}

func (t *HumanNameTable) AddJoin(q *sqlb.SelectQuery, resourceTable string) {
	q.Join(humanNameTable, joinOn(humanNameTable, resourceTable))
}

func (t *HumanNameTable) AddFilter(q *sqlb.SelectQuery, p *fhir.SearchParameter, f fhir.Filter) error {
	return stringFilter(q, humanNameTable+"."+humanNameColumns[p.Code], f)
}

func (t *HumanNameTable) AddSort(q *sqlb.SelectQuery, p *fhir.SearchParameter, rule fhir.SortRule) {
	q.OrderBy(humanNameTable+"."+humanNameColumns[p.Code], rule.Descending)
}

func (t *HumanNameTable) Index(ctx context.Context, db Execer, resourceID string, r fhir.Resource) error {
	if err := t.DeleteRows(ctx, db, resourceID); err != nil {
		return err
	}
	for _, name := range fhir.DecodeField[fhir.HumanName](r, "name") {
		sql, args := sqlb.Insert(humanNameTable).
			Value("id", uuid.NewString()).
			Value("resource_id", resourceID).
			Value("name", name.Formatted()).
			Value("given", joinStrings(name.Given)).
			Value("family", name.Family).
			SQL()
		if _, err := db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("index human name: %w", err)
		}
	}
	return nil
}

func (t *HumanNameTable) DeleteRows(ctx context.Context, db Execer, resourceID string) error {
	sql, args := sqlb.Delete(humanNameTable).Where("resource_id", sqlb.OpEqual, resourceID).SQL()
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete human name rows: %w", err)
	}
	return nil
}

func (t *HumanNameTable) DDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS fhir_humanname (
			id UUID PRIMARY KEY,
			resource_id UUID NOT NULL,
			name TEXT,
			given TEXT,
			family TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS fhir_humanname_resource_idx ON fhir_humanname (resource_id)`,
		`CREATE INDEX IF NOT EXISTS fhir_humanname_name_idx ON fhir_humanname (name)`,
		`CREATE INDEX IF NOT EXISTS fhir_humanname_family_idx ON fhir_humanname (family)`,
	}
}
