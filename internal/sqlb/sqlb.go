// Package sqlb is a small parameterized SQL construction library. It owns no
// domain knowledge: callers supply table and column names from trusted
// catalogs, and every value is bound through positional arguments, never
// interpolated into the SQL text.
package sqlb

import (
	"fmt"
	"strings"
)

// Op is the typed predicate operator set.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpLike          // case-sensitive pattern match
	OpILike         // case-insensitive pattern match
	OpArrayContains // value is an element of an array column
	OpArrayOverlaps // array column shares any element with a []string value
)

type condition struct {
	column string
	op     Op
	value  any
}

type join struct {
	table string
	on    string
}

type orderBy struct {
	column     string
	descending bool
}

// SelectQuery builds a parameterized SELECT.
type SelectQuery struct {
	table   string
	columns []string
	joins   []join
	joined  map[string]bool
	conds   []condition
	groupBy []string
	order   []orderBy
	limit   int
	offset  int
}

// Select starts a SELECT against table, returning the given columns.
func Select(table string, columns ...string) *SelectQuery {
	return &SelectQuery{
		table:   table,
		columns: columns,
		joined:  map[string]bool{},
		limit:   -1,
		offset:  -1,
	}
}

// Join adds an inner join, deduplicated by table name so a table referenced
// by both a filter and a sort rule joins once.
func (q *SelectQuery) Join(table, on string) *SelectQuery {
	if q.joined[table] {
		return q
	}
	q.joined[table] = true
	q.joins = append(q.joins, join{table: table, on: on})
	return q
}

// Where adds one AND-combined predicate.
func (q *SelectQuery) Where(column string, op Op, value any) *SelectQuery {
	q.conds = append(q.conds, condition{column: column, op: op, value: value})
	return q
}

// OrderBy appends an ordering rule.
func (q *SelectQuery) OrderBy(column string, descending bool) *SelectQuery {
	q.order = append(q.order, orderBy{column: column, descending: descending})
	return q
}

// GroupBy collapses result rows on the given columns, so LIMIT and OFFSET
// window over groups rather than raw join rows. Ordering columns outside
// the grouping are rendered as MIN aggregates.
func (q *SelectQuery) GroupBy(columns ...string) *SelectQuery {
	q.groupBy = append(q.groupBy, columns...)
	return q
}

// Joined reports whether any join has been added.
func (q *SelectQuery) Joined() bool { return len(q.joins) > 0 }

func (q *SelectQuery) Limit(n int) *SelectQuery  { q.limit = n; return q }
func (q *SelectQuery) Offset(n int) *SelectQuery { q.offset = n; return q }

// SQL renders the query text and its bound arguments.
func (q *SelectQuery) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.table)

	for _, j := range q.joins {
		b.WriteString(" JOIN ")
		b.WriteString(j.table)
		b.WriteString(" ON ")
		b.WriteString(j.on)
	}

	args := writeConditions(&b, q.conds, nil)

	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.groupBy, ", "))
	}

	for i, o := range q.order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(q.orderColumn(o.column))
		if o.descending {
			b.WriteString(" DESC")
		}
	}

	if q.limit >= 0 {
		fmt.Fprintf(&b, " LIMIT $%d", len(args)+1)
		args = append(args, q.limit)
	}
	if q.offset >= 0 {
		fmt.Fprintf(&b, " OFFSET $%d", len(args)+1)
		args = append(args, q.offset)
	}

	return b.String(), args
}

// orderColumn renders an ORDER BY expression, aggregating columns that are
// not part of an active grouping.
func (q *SelectQuery) orderColumn(column string) string {
	if len(q.groupBy) == 0 {
		return column
	}
	for _, g := range q.groupBy {
		if g == column {
			return column
		}
	}
	return "MIN(" + column + ")"
}

// CountSQL renders a COUNT over the same joins and predicates, without
// ordering or pagination. Joined multi-valued tables can multiply rows, so
// the count is over distinct base-table ids.
func (q *SelectQuery) CountSQL() (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT COUNT(DISTINCT %s.id) FROM %s", q.table, q.table)
	for _, j := range q.joins {
		b.WriteString(" JOIN ")
		b.WriteString(j.table)
		b.WriteString(" ON ")
		b.WriteString(j.on)
	}
	args := writeConditions(&b, q.conds, nil)
	return b.String(), args
}

func writeConditions(b *strings.Builder, conds []condition, args []any) []any {
	for i, c := range conds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = writeCondition(b, c, args)
	}
	return args
}

func writeCondition(b *strings.Builder, c condition, args []any) []any {
	n := len(args) + 1
	switch c.op {
	case OpEqual:
		fmt.Fprintf(b, "%s = $%d", c.column, n)
	case OpNotEqual:
		fmt.Fprintf(b, "%s != $%d", c.column, n)
	case OpGreater:
		fmt.Fprintf(b, "%s > $%d", c.column, n)
	case OpGreaterEqual:
		fmt.Fprintf(b, "%s >= $%d", c.column, n)
	case OpLess:
		fmt.Fprintf(b, "%s < $%d", c.column, n)
	case OpLessEqual:
		fmt.Fprintf(b, "%s <= $%d", c.column, n)
	case OpLike:
		fmt.Fprintf(b, "%s LIKE $%d", c.column, n)
	case OpILike:
		fmt.Fprintf(b, "%s ILIKE $%d", c.column, n)
	case OpArrayContains:
		fmt.Fprintf(b, "$%d = ANY(%s)", n, c.column)
	case OpArrayOverlaps:
		fmt.Fprintf(b, "%s && $%d", c.column, n)
	}
	return append(args, c.value)
}

// InsertQuery builds a parameterized INSERT, optionally upserting.
type InsertQuery struct {
	table       string
	columns     []string
	values      []any
	conflictKey string
}

func Insert(table string) *InsertQuery {
	return &InsertQuery{table: table}
}

// Value adds one column/value pair.
func (q *InsertQuery) Value(column string, value any) *InsertQuery {
	q.columns = append(q.columns, column)
	q.values = append(q.values, value)
	return q
}

// OnConflictUpdate turns the insert into an upsert keyed on the given
// column; every other column is updated from the excluded row.
func (q *InsertQuery) OnConflictUpdate(keyColumn string) *InsertQuery {
	q.conflictKey = keyColumn
	return q
}

func (q *InsertQuery) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(q.table)
	b.WriteString(" (")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(") VALUES (")
	for i := range q.values {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(")")

	if q.conflictKey != "" {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", q.conflictKey)
		first := true
		for _, col := range q.columns {
			if col == q.conflictKey {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s = EXCLUDED.%s", col, col)
			first = false
		}
	}

	return b.String(), q.values
}

// UpdateQuery builds a parameterized UPDATE.
type UpdateQuery struct {
	table   string
	columns []string
	values  []any
	conds   []condition
}

func Update(table string) *UpdateQuery {
	return &UpdateQuery{table: table}
}

func (q *UpdateQuery) Set(column string, value any) *UpdateQuery {
	q.columns = append(q.columns, column)
	q.values = append(q.values, value)
	return q
}

func (q *UpdateQuery) Where(column string, op Op, value any) *UpdateQuery {
	q.conds = append(q.conds, condition{column: column, op: op, value: value})
	return q
}

func (q *UpdateQuery) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(q.table)
	b.WriteString(" SET ")
	args := make([]any, 0, len(q.values)+len(q.conds))
	for i, col := range q.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = $%d", col, len(args)+1)
		args = append(args, q.values[i])
	}
	args = writeConditions(&b, q.conds, args)
	return b.String(), args
}

// DeleteQuery builds a parameterized DELETE.
type DeleteQuery struct {
	table string
	conds []condition
}

func Delete(table string) *DeleteQuery {
	return &DeleteQuery{table: table}
}

func (q *DeleteQuery) Where(column string, op Op, value any) *DeleteQuery {
	q.conds = append(q.conds, condition{column: column, op: op, value: value})
	return q
}

func (q *DeleteQuery) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(q.table)
	args := writeConditions(&b, q.conds, nil)
	return b.String(), args
}
