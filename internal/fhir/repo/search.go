package repo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/fhir/lookup"
	"github.com/medcore/fhirstore/internal/sqlb"
)

// SearchResult is one page of matches plus the total across all pages.
type SearchResult struct {
	Resources []fhir.Resource
	Total     int
}

// Search compiles a parsed request into SQL and runs it. Tenant isolation
// and the deleted-row filter are always part of the compiled query; they
// cannot be disabled by request parameters.
func (r *Repository) Search(ctx context.Context, rctx *Context, req *fhir.SearchRequest) (*SearchResult, error) {
	q, err := r.compileSearch(rctx, req)
	if err != nil {
		return nil, err
	}

	countSQL, countArgs := q.CountSQL()
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fhir.InternalError(fmt.Errorf("count %s search: %w", req.ResourceType, err))
	}

	q.Limit(req.Count).Offset(req.Page * req.Count)
	sql, args := q.SQL()
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fhir.InternalError(fmt.Errorf("run %s search: %w", req.ResourceType, err))
	}
	defer rows.Close()

	result := &SearchResult{Total: total}
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, fhir.InternalError(fmt.Errorf("scan %s search: %w", req.ResourceType, err))
		}
		res, err := fhir.ParseResource([]byte(content))
		if err != nil {
			return nil, fhir.InternalError(fmt.Errorf("decode %s search row: %w", req.ResourceType, err))
		}
		result.Resources = append(result.Resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fhir.InternalError(fmt.Errorf("run %s search: %w", req.ResourceType, err))
	}
	return result, nil
}

// compileSearch builds the parameterized query for a request without
// touching the database.
func (r *Repository) compileSearch(rctx *Context, req *fhir.SearchRequest) (*sqlb.SelectQuery, error) {
	if !r.catalog.HasType(req.ResourceType) {
		return nil, fhir.ValidationError("unknown resource type %q", req.ResourceType)
	}

	table := tableName(req.ResourceType)
	q := sqlb.Select(table, table+".id", table+".content")

	q.Where(table+".deleted", sqlb.OpEqual, false)
	if !rctx.SuperAdmin {
		q.Where(table+".compartments", sqlb.OpArrayOverlaps, []string{rctx.Project, publicProject})
	}
	if len(rctx.Compartments) > 0 {
		q.Where(table+".compartments", sqlb.OpArrayOverlaps, rctx.Compartments)
	}

	for _, f := range req.Filters {
		if err := r.addSearchFilter(q, table, req.ResourceType, f); err != nil {
			return nil, err
		}
	}

	for _, rule := range req.SortRules {
		if rule.Code == "_lastUpdated" {
			q.OrderBy(table+".last_updated", rule.Descending)
			continue
		}
		param := r.catalog.Param(req.ResourceType, rule.Code)
		if param == nil {
			return nil, fhir.BadRequestError("unknown sort parameter %q for %s", rule.Code, req.ResourceType)
		}
		if lt := lookup.ClaimedBy(r.lookups, param); lt != nil {
			lt.AddJoin(q, table)
			lt.AddSort(q, param, rule)
			continue
		}
		if param.Array {
			return nil, fhir.BadRequestError("cannot sort by multi-valued parameter %q", rule.Code)
		}
		q.OrderBy(table+"."+param.ColumnName(), rule.Descending)
	}

	// Lookup joins fan one resource out over several rows; grouping keeps
	// LIMIT and OFFSET windowing over resources.
	if q.Joined() {
		q.GroupBy(table+".id", table+".content")
	}

	return q, nil
}

func (r *Repository) addSearchFilter(q *sqlb.SelectQuery, table, resourceType string, f fhir.Filter) error {
	switch f.Code {
	case "_id":
		if _, err := uuid.Parse(f.Value); err != nil {
			return fhir.BadRequestError("invalid _id value %q", f.Value)
		}
		q.Where(table+".id", sqlb.OpEqual, f.Value)
		return nil
	case "_lastUpdated":
		t, err := fhir.ParseSearchDate(f.Value)
		if err != nil {
			return fhir.BadRequestError("invalid _lastUpdated value %q", f.Value)
		}
		op, ok := orderedOps[f.Operator]
		if !ok {
			return fhir.BadRequestError("operator %q not supported for _lastUpdated", f.Operator)
		}
		q.Where(table+".last_updated", op, t)
		return nil
	}

	param := r.catalog.Param(resourceType, f.Code)
	if param == nil {
		return fhir.BadRequestError("unknown search parameter %q for %s", f.Code, resourceType)
	}
	if lt := lookup.ClaimedBy(r.lookups, param); lt != nil {
		lt.AddJoin(q, table)
		return lt.AddFilter(q, param, f)
	}

	column := table + "." + param.ColumnName()
	switch param.Type {
	case fhir.SearchParamString:
		switch f.Operator {
		case fhir.OpEquals:
			q.Where(column, sqlb.OpILike, escapeLike(f.Value)+"%")
		case fhir.OpContains:
			q.Where(column, sqlb.OpILike, "%"+escapeLike(f.Value)+"%")
		case fhir.OpExact:
			q.Where(column, sqlb.OpEqual, f.Value)
		case fhir.OpNotEquals:
			q.Where(column, sqlb.OpNotEqual, f.Value)
		default:
			return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
		}

	case fhir.SearchParamToken:
		if param.Array {
			if f.Operator != fhir.OpEquals {
				return fhir.BadRequestError("operator %q not supported for multi-valued parameter %q", f.Operator, f.Code)
			}
			q.Where(column, sqlb.OpArrayContains, f.Value)
			return nil
		}
		switch f.Operator {
		case fhir.OpEquals:
			q.Where(column, sqlb.OpEqual, f.Value)
		case fhir.OpNotEquals, fhir.OpNot:
			q.Where(column, sqlb.OpNotEqual, f.Value)
		case fhir.OpText:
			q.Where(column, sqlb.OpILike, "%"+escapeLike(f.Value)+"%")
		default:
			return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
		}

	case fhir.SearchParamReference:
		if param.Array {
			q.Where(column, sqlb.OpArrayContains, referenceValue(resourceType, f.Code, f.Value))
			return nil
		}
		q.Where(column, sqlb.OpEqual, referenceValue(resourceType, f.Code, f.Value))

	case fhir.SearchParamDate:
		op, ok := orderedOps[f.Operator]
		if !ok {
			return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
		}
		// Dates are stored as ISO-8601 text, so lexicographic comparison
		// matches chronological order.
		q.Where(column, op, f.Value)

	case fhir.SearchParamNumber:
		op, ok := orderedOps[f.Operator]
		if !ok {
			return fhir.BadRequestError("operator %q not supported for parameter %q", f.Operator, f.Code)
		}
		n, err := strconv.ParseFloat(f.Value, 64)
		if err != nil {
			return fhir.BadRequestError("invalid number value %q for parameter %q", f.Value, f.Code)
		}
		q.Where(column, op, n)

	case fhir.SearchParamURI:
		q.Where(column, sqlb.OpEqual, f.Value)

	default:
		return fhir.BadRequestError("search parameter type %q is not supported", param.Type)
	}
	return nil
}

// orderedOps maps filter operators onto SQL comparison operators for number
// and date parameters. Approximate matching degrades to equality.
var orderedOps = map[fhir.FilterOperator]sqlb.Op{
	fhir.OpEquals:             sqlb.OpEqual,
	fhir.OpNotEquals:          sqlb.OpNotEqual,
	fhir.OpGreaterThan:        sqlb.OpGreater,
	fhir.OpLessThan:           sqlb.OpLess,
	fhir.OpGreaterThanOrEqual: sqlb.OpGreaterEqual,
	fhir.OpLessThanOrEqual:    sqlb.OpLessEqual,
	fhir.OpStartsAfter:        sqlb.OpGreater,
	fhir.OpEndsBefore:         sqlb.OpLess,
	fhir.OpApproximately:      sqlb.OpEqual,
}

// referenceTargets maps reference parameter codes to the type a bare-id
// search value is qualified with.
var referenceTargets = map[string]string{
	"subject":      "Patient",
	"patient":      "Patient",
	"encounter":    "Encounter",
	"performer":    "Practitioner",
	"requester":    "Practitioner",
	"organization": "Organization",
	"login-user":   "User",
}

// referenceValue normalizes a reference search value to the stored form
// "Type/id". Bare ids are qualified with the parameter's usual target type.
func referenceValue(resourceType, code, value string) string {
	if strings.Contains(value, "/") {
		return value
	}
	if target, ok := referenceTargets[code]; ok {
		return target + "/" + value
	}
	return value
}

func escapeLike(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "%", `\%`)
	return strings.ReplaceAll(v, "_", `\_`)
}
