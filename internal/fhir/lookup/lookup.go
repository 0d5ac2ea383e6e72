// Package lookup implements the side-table indexes for multi-valued
// composite fields that cannot live in flat resource-table columns. Each
// table owns its rows, claims the search parameters it can answer, and
// contributes join/filter/sort fragments to compiled search queries. The
// repository only ever talks to the shared Table capability; no table is
// special-cased by name.
package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

// Execer is the write surface a lookup table needs; pgx transactions and
// pools both satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Table is the uniform lookup-table capability.
type Table interface {
	// Name is the side table's SQL name.
	Name() string
	// Claims reports whether this table answers the given search parameter.
	Claims(p *fhir.SearchParameter) bool
	// AddJoin joins the side table against the resource table. Join
	// deduplication is handled by the query builder.
	AddJoin(q *sqlb.SelectQuery, resourceTable string)
	// AddFilter contributes the WHERE fragment for a claimed filter.
	AddFilter(q *sqlb.SelectQuery, p *fhir.SearchParameter, f fhir.Filter) error
	// AddSort contributes an ORDER BY fragment for a claimed sort rule.
	AddSort(q *sqlb.SelectQuery, p *fhir.SearchParameter, rule fhir.SortRule)
	// Index replaces the resource's rows with rows extracted from the
	// current content. Runs inside the caller's write transaction.
	Index(ctx context.Context, db Execer, resourceID string, r fhir.Resource) error
	// DeleteRows removes all rows for a resource id.
	DeleteRows(ctx context.Context, db Execer, resourceID string) error
	// DDL returns the statements that create the side table.
	DDL() []string
}

// All returns the full lookup table set.
func All() []Table {
	return []Table{
		&HumanNameTable{},
		&AddressTable{},
		&ContactPointTable{},
		&IdentifierTable{},
	}
}

// ClaimedBy finds the table claiming a parameter, or nil.
func ClaimedBy(tables []Table, p *fhir.SearchParameter) Table {
	for _, t := range tables {
		if t.Claims(p) {
			return t
		}
	}
	return nil
}

func joinOn(table, resourceTable string) string {
	return fmt.Sprintf("%s.id = %s.resource_id", resourceTable, table)
}

// stringFilter applies the string-parameter operator mapping to a column:
// equals is a case-insensitive prefix match, contains an infix match, and
// exact a strict equality.
func stringFilter(q *sqlb.SelectQuery, column string, f fhir.Filter) error {
	switch f.Operator {
	case fhir.OpEquals:
		q.Where(column, sqlb.OpILike, likeEscape(f.Value)+"%")
	case fhir.OpContains:
		q.Where(column, sqlb.OpILike, "%"+likeEscape(f.Value)+"%")
	case fhir.OpExact:
		q.Where(column, sqlb.OpEqual, f.Value)
	case fhir.OpNotEquals:
		q.Where(column, sqlb.OpNotEqual, f.Value)
	default:
		return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
	}
	return nil
}

func joinStrings(parts []string) string {
	return strings.Join(parts, " ")
}

// likeEscape neutralizes pattern metacharacters in user-supplied values.
func likeEscape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "%", `\%`)
	return strings.ReplaceAll(v, "_", `\_`)
}
