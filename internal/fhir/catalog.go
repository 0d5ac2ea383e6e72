package fhir

import (
	"sort"
)

// FieldKind describes the JSON shape a resource field must have.
type FieldKind int

const (
	FieldScalar FieldKind = iota // string, number, or boolean
	FieldArray                   // JSON array
	FieldObject                  // JSON object
)

// TypeDefinition is the data-driven description of one resource type:
// required fields, the shape of every allowed field, and nothing else.
// Fields not listed here are rejected at validation time.
type TypeDefinition struct {
	Name     string
	Required []string
	Fields   map[string]FieldKind
}

// Catalog is the immutable schema catalog: every resource type definition and
// every search parameter, indexed for O(1) lookup. Constructed once at
// startup and safe for concurrent use.
type Catalog struct {
	types  map[string]*TypeDefinition
	params map[string]map[string]*SearchParameter
}

// NewCatalog builds the catalog from the built-in definition tables.
func NewCatalog() *Catalog {
	c := &Catalog{
		types:  make(map[string]*TypeDefinition, len(typeDefinitions)),
		params: make(map[string]map[string]*SearchParameter),
	}
	for i := range typeDefinitions {
		def := &typeDefinitions[i]
		c.types[def.Name] = def
		c.params[def.Name] = map[string]*SearchParameter{}
	}
	for i := range searchParameterDefs {
		p := &searchParameterDefs[i]
		for _, base := range p.Base {
			if byCode, ok := c.params[base]; ok {
				byCode[p.Code] = p
			}
		}
	}
	return c
}

// HasType reports whether resourceType is part of the catalog.
func (c *Catalog) HasType(resourceType string) bool {
	_, ok := c.types[resourceType]
	return ok
}

// Definition returns the type definition, or nil for unknown types.
func (c *Catalog) Definition(resourceType string) *TypeDefinition {
	return c.types[resourceType]
}

// ResourceTypes returns all catalog type names in sorted order.
func (c *Catalog) ResourceTypes() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Param resolves a search parameter by (resourceType, code). Nil if the code
// is not defined for the type.
func (c *Catalog) Param(resourceType, code string) *SearchParameter {
	return c.params[resourceType][code]
}

// Params returns all search parameters for a resource type, sorted by code
// so that derived column sets are deterministic.
func (c *Catalog) Params(resourceType string) []*SearchParameter {
	byCode := c.params[resourceType]
	out := make([]*SearchParameter, 0, len(byCode))
	for _, p := range byCode {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Validate checks a resource against its type definition: known type,
// required fields present, and every field carrying the declared shape.
// Violations are reported as ValidationError outcomes naming the field.
func (c *Catalog) Validate(r Resource) error {
	resourceType := r.Type()
	if resourceType == "" {
		return ValidationError("missing resourceType")
	}
	def, ok := c.types[resourceType]
	if !ok {
		return ValidationError("unknown resource type %q", resourceType)
	}

	for _, req := range def.Required {
		if v, ok := r[req]; !ok || v == nil {
			return ValidationError("%s: missing required field %q", resourceType, req)
		}
	}

	for field, value := range r {
		switch field {
		case "resourceType", "id", "meta":
			continue
		}
		kind, ok := def.Fields[field]
		if !ok {
			return ValidationError("%s: unrecognized field %q", resourceType, field)
		}
		if value == nil {
			continue
		}
		switch kind {
		case FieldScalar:
			switch value.(type) {
			case string, float64, bool:
			default:
				return ValidationError("%s: field %q must be a scalar value", resourceType, field)
			}
		case FieldArray:
			if _, ok := value.([]any); !ok {
				return ValidationError("%s: field %q must be an array", resourceType, field)
			}
		case FieldObject:
			if _, ok := value.(map[string]any); !ok {
				return ValidationError("%s: field %q must be an object", resourceType, field)
			}
		}
	}
	return nil
}
