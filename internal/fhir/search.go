package fhir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FilterOperator is the fixed operator enumeration for search filters.
type FilterOperator string

const (
	OpEquals             FilterOperator = "eq"
	OpNotEquals          FilterOperator = "ne"
	OpContains           FilterOperator = "contains"
	OpExact              FilterOperator = "exact"
	OpGreaterThan        FilterOperator = "gt"
	OpLessThan           FilterOperator = "lt"
	OpGreaterThanOrEqual FilterOperator = "ge"
	OpLessThanOrEqual    FilterOperator = "le"
	OpStartsAfter        FilterOperator = "sa"
	OpEndsBefore         FilterOperator = "eb"
	OpApproximately      FilterOperator = "ap"
	OpText               FilterOperator = "text"
	OpNot                FilterOperator = "not"
	OpAbove              FilterOperator = "above"
	OpBelow              FilterOperator = "below"
	OpIn                 FilterOperator = "in"
	OpNotIn              FilterOperator = "not-in"
	OpOfType             FilterOperator = "of-type"
)

// Filter is one search predicate. Immutable once constructed.
type Filter struct {
	Code     string
	Operator FilterOperator
	Value    string
}

// SortRule is one ordering rule.
type SortRule struct {
	Code       string
	Descending bool
}

// SearchRequest is a fully parsed search. Constructed once per request.
type SearchRequest struct {
	ResourceType string
	Filters      []Filter
	SortRules    []SortRule
	Page         int
	Count        int
}

const (
	// DefaultSearchCount is the page size when _count is absent.
	DefaultSearchCount = 10
	// MaxSearchCount bounds caller-supplied _count values.
	MaxSearchCount = 100
)

// orderedPrefixes is the two-letter operator grammar for number and date
// parameter values, e.g. "gt2023-01-01".
var orderedPrefixes = map[string]FilterOperator{
	"eq": OpEquals, "ne": OpNotEquals,
	"gt": OpGreaterThan, "lt": OpLessThan,
	"ge": OpGreaterThanOrEqual, "le": OpLessThanOrEqual,
	"sa": OpStartsAfter, "eb": OpEndsBefore, "ap": OpApproximately,
}

// splitOrderedValue extracts an operator prefix from a number/date value.
// Values without a recognized prefix default to equals.
func splitOrderedValue(raw string) (FilterOperator, string) {
	if len(raw) > 2 {
		if op, ok := orderedPrefixes[strings.ToLower(raw[:2])]; ok {
			return op, raw[2:]
		}
	}
	return OpEquals, raw
}

// splitModifier separates a query key into its code and modifier,
// e.g. "name:exact" -> ("name", "exact").
func splitModifier(key string) (code, modifier string) {
	if idx := strings.Index(key, ":"); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// ParseSearchRequest turns query-string-style parameters into a validated
// SearchRequest against the catalog. Reserved keys (_id, _sort, _page,
// _count, _lastUpdated) bypass the search parameter table. Malformed or
// unsupported inputs fail with BadRequest before any store access.
func ParseSearchRequest(catalog *Catalog, resourceType string, query map[string][]string) (*SearchRequest, error) {
	if !catalog.HasType(resourceType) {
		return nil, ValidationError("unknown resource type %q", resourceType)
	}

	req := &SearchRequest{
		ResourceType: resourceType,
		Page:         0,
		Count:        DefaultSearchCount,
	}

	// Repeated keys AND-combine, e.g. two birthdate values form a range.
	for key, values := range query {
		for _, value := range values {
			if value == "" {
				continue
			}
			if err := parseSearchEntry(catalog, req, key, value); err != nil {
				return nil, err
			}
		}
	}

	return req, nil
}

func parseSearchEntry(catalog *Catalog, req *SearchRequest, key, value string) error {
	resourceType := req.ResourceType

	switch key {
	case "_id":
		req.Filters = append(req.Filters, Filter{Code: "_id", Operator: OpEquals, Value: value})
		return nil
	case "_lastUpdated":
		op, v := splitOrderedValue(value)
		if err := validateSearchDate(v); err != nil {
			return err
		}
		req.Filters = append(req.Filters, Filter{Code: "_lastUpdated", Operator: op, Value: v})
		return nil
	case "_sort":
		rules, err := parseSortRules(catalog, resourceType, value)
		if err != nil {
			return err
		}
		req.SortRules = rules
		return nil
	case "_page":
		page, err := strconv.Atoi(value)
		if err != nil || page < 0 {
			return BadRequestError("invalid _page value %q", value)
		}
		req.Page = page
		return nil
	case "_count":
		count, err := strconv.Atoi(value)
		if err != nil || count < 1 {
			return BadRequestError("invalid _count value %q", value)
		}
		if count > MaxSearchCount {
			count = MaxSearchCount
		}
		req.Count = count
		return nil
	}

	if strings.HasPrefix(key, "_") {
		return BadRequestError("unsupported search control parameter %q", key)
	}

	code, modifier := splitModifier(key)
	param := catalog.Param(resourceType, code)
	if param == nil {
		return BadRequestError("unknown search parameter %q for %s", code, resourceType)
	}

	filter, err := parseFilter(param, modifier, value)
	if err != nil {
		return err
	}
	req.Filters = append(req.Filters, filter)
	return nil
}

func parseFilter(param *SearchParameter, modifier, value string) (Filter, error) {
	switch param.Type {
	case SearchParamNumber:
		op, v := splitOrderedValue(value)
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return Filter{}, BadRequestError("invalid number value %q for parameter %q", value, param.Code)
		}
		return Filter{Code: param.Code, Operator: op, Value: v}, nil

	case SearchParamDate:
		op, v := splitOrderedValue(value)
		if err := validateSearchDate(v); err != nil {
			return Filter{}, err
		}
		return Filter{Code: param.Code, Operator: op, Value: v}, nil

	case SearchParamString:
		switch modifier {
		case "":
			return Filter{Code: param.Code, Operator: OpEquals, Value: value}, nil
		case "exact":
			return Filter{Code: param.Code, Operator: OpExact, Value: value}, nil
		case "contains":
			return Filter{Code: param.Code, Operator: OpContains, Value: value}, nil
		default:
			return Filter{}, BadRequestError("unsupported modifier %q for string parameter %q", modifier, param.Code)
		}

	case SearchParamToken:
		switch modifier {
		case "":
			return Filter{Code: param.Code, Operator: OpEquals, Value: value}, nil
		case "text":
			return Filter{Code: param.Code, Operator: OpText, Value: value}, nil
		case "not":
			return Filter{Code: param.Code, Operator: OpNot, Value: value}, nil
		case "above", "below", "in", "not-in", "of-type":
			// Terminology-backed matching is not implemented.
			return Filter{}, BadRequestError("token modifier %q is not supported", modifier)
		default:
			return Filter{}, BadRequestError("unsupported modifier %q for token parameter %q", modifier, param.Code)
		}

	case SearchParamReference:
		if modifier != "" {
			return Filter{}, BadRequestError("unsupported modifier %q for reference parameter %q", modifier, param.Code)
		}
		return Filter{Code: param.Code, Operator: OpEquals, Value: value}, nil

	case SearchParamURI:
		if modifier != "" {
			return Filter{}, BadRequestError("unsupported modifier %q for uri parameter %q", modifier, param.Code)
		}
		return Filter{Code: param.Code, Operator: OpEquals, Value: value}, nil

	case SearchParamQuantity, SearchParamComposite:
		return Filter{}, BadRequestError("search parameter type %q is not supported", param.Type)

	default:
		return Filter{}, BadRequestError("search parameter %q has unsupported type %q", param.Code, param.Type)
	}
}

func parseSortRules(catalog *Catalog, resourceType, value string) ([]SortRule, error) {
	var rules []SortRule
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field != "_lastUpdated" && catalog.Param(resourceType, field) == nil {
			return nil, BadRequestError("unknown sort parameter %q for %s", field, resourceType)
		}
		rules = append(rules, SortRule{Code: field, Descending: desc})
	}
	return rules, nil
}

// searchDateFormats are the date precisions accepted in search values.
var searchDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func validateSearchDate(v string) error {
	for _, f := range searchDateFormats {
		if _, err := time.Parse(f, v); err == nil {
			return nil
		}
	}
	return BadRequestError("invalid date value %q", v)
}

// ParseSearchDate parses a search date value at any accepted precision.
func ParseSearchDate(v string) (time.Time, error) {
	for _, f := range searchDateFormats {
		if t, err := time.Parse(f, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", v)
}
