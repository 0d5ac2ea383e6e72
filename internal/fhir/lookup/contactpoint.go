package lookup

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

const contactPointTable = "fhir_contactpoint"

// ContactPointTable indexes telecom entries: one row per contact point with
// its system and value. The email and phone parameters are the telecom
// parameter narrowed to a fixed system.
type ContactPointTable struct{}

func (t *ContactPointTable) Name() string { return contactPointTable }

var contactPointSystems = map[string]string{
	"telecom": "",
	"email":   "email",
	"phone":   "phone",
}

func (t *ContactPointTable) Claims(p *fhir.SearchParameter) bool {
	if p.Type != fhir.SearchParamToken {
		return false
	}
	_, ok := contactPointSystems[p.Code]
	return ok
}

func (t *ContactPointTable) AddJoin(q *sqlb.SelectQuery, resourceTable string) {
	q.Join(contactPointTable, joinOn(contactPointTable, resourceTable))
}

func (t *ContactPointTable) AddFilter(q *sqlb.SelectQuery, p *fhir.SearchParameter, f fhir.Filter) error {
	if system := contactPointSystems[p.Code]; system != "" {
		q.Where(contactPointTable+".system", sqlb.OpEqual, system)
	}
	switch f.Operator {
	case fhir.OpEquals:
		q.Where(contactPointTable+".value", sqlb.OpEqual, f.Value)
	case fhir.OpNotEquals, fhir.OpNot:
		q.Where(contactPointTable+".value", sqlb.OpNotEqual, f.Value)
	case fhir.OpText:
		q.Where(contactPointTable+".value", sqlb.OpILike, "%"+likeEscape(f.Value)+"%")
	default:
		return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
	}
	return nil
}

func (t *ContactPointTable) AddSort(q *sqlb.SelectQuery, p *fhir.SearchParameter, rule fhir.SortRule) {
	q.OrderBy(contactPointTable+".value", rule.Descending)
}

func (t *ContactPointTable) Index(ctx context.Context, db Execer, resourceID string, r fhir.Resource) error {
	if err := t.DeleteRows(ctx, db, resourceID); err != nil {
		return err
	}
	for _, cp := range fhir.DecodeField[fhir.ContactPoint](r, "telecom") {
		sql, args := sqlb.Insert(contactPointTable).
			Value("id", uuid.NewString()).
			Value("resource_id", resourceID).
			Value("system", cp.System).
			Value("value", cp.Value).
			SQL()
		if _, err := db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("index contact point: %w", err)
		}
	}
	return nil
}

func (t *ContactPointTable) DeleteRows(ctx context.Context, db Execer, resourceID string) error {
	sql, args := sqlb.Delete(contactPointTable).Where("resource_id", sqlb.OpEqual, resourceID).SQL()
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete contact point rows: %w", err)
	}
	return nil
}

func (t *ContactPointTable) DDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS fhir_contactpoint (
			id UUID PRIMARY KEY,
			resource_id UUID NOT NULL,
			system TEXT,
			value TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS fhir_contactpoint_resource_idx ON fhir_contactpoint (resource_id)`,
		`CREATE INDEX IF NOT EXISTS fhir_contactpoint_value_idx ON fhir_contactpoint (system, value)`,
	}
}
