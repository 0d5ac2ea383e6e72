package fhir

import (
	"fmt"
	"strconv"
	"strings"
)

// SearchParamType is the value type of a search parameter, which selects the
// operator grammar used when parsing filter values.
type SearchParamType string

const (
	SearchParamString    SearchParamType = "string"
	SearchParamToken     SearchParamType = "token"
	SearchParamReference SearchParamType = "reference"
	SearchParamDate      SearchParamType = "date"
	SearchParamNumber    SearchParamType = "number"
	SearchParamURI       SearchParamType = "uri"
	SearchParamQuantity  SearchParamType = "quantity"
	SearchParamComposite SearchParamType = "composite"
)

// SearchParameter is a data-driven definition of one searchable field.
// Immutable at runtime.
type SearchParameter struct {
	Code       string
	Type       SearchParamType
	Base       []string
	Expression string // dotted extraction path within the resource
	Array      bool   // multi-valued: indexed into an array column
}

// ColumnName derives the resource-table column for this parameter.
// Hyphens are dropped, mirroring the catalog-to-DDL mapping.
func (p *SearchParameter) ColumnName() string {
	return ColumnNameForCode(p.Code)
}

// ColumnNameForCode maps a search parameter code to a safe column name.
func ColumnNameForCode(code string) string {
	var b strings.Builder
	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + 32)
		}
	}
	return b.String()
}

// EvalExpression extracts every string value a dotted path selects from a
// resource. Arrays along the path fan out; terminal scalars are stringified.
// "name.family" over a list of names yields one value per name.
func EvalExpression(r Resource, expr string) []string {
	if expr == "" {
		return nil
	}
	values := []any{map[string]any(r)}
	for _, seg := range strings.Split(expr, ".") {
		next := make([]any, 0, len(values))
		for _, v := range values {
			obj, ok := v.(map[string]any)
			if !ok {
				continue
			}
			child, ok := obj[seg]
			if !ok || child == nil {
				continue
			}
			if arr, ok := child.([]any); ok {
				next = append(next, arr...)
			} else {
				next = append(next, child)
			}
		}
		values = next
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			out = append(out, fmt.Sprintf("%t", t))
		}
	}
	return out
}

// searchParameterDefs is the built-in search parameter table. The composite
// multi-valued concerns (names, addresses, contact points, identifiers) are
// not listed with expressions here; they are claimed and indexed by the
// lookup tables instead of flat columns.
var searchParameterDefs = []SearchParameter{
	// Composite parameters owned by lookup tables.
	{Code: "name", Type: SearchParamString, Base: []string{"Patient", "Practitioner"}},
	{Code: "family", Type: SearchParamString, Base: []string{"Patient", "Practitioner"}},
	{Code: "given", Type: SearchParamString, Base: []string{"Patient", "Practitioner"}},
	{Code: "identifier", Type: SearchParamToken, Base: []string{
		"Patient", "Practitioner", "Organization", "Location", "Encounter", "Observation",
		"Condition", "Procedure", "MedicationRequest", "ServiceRequest", "DiagnosticReport",
		"AllergyIntolerance",
	}},
	{Code: "address", Type: SearchParamString, Base: []string{"Patient", "Organization", "Location"}},
	{Code: "address-city", Type: SearchParamString, Base: []string{"Patient", "Organization", "Location"}},
	{Code: "address-state", Type: SearchParamString, Base: []string{"Patient", "Organization", "Location"}},
	{Code: "address-postalcode", Type: SearchParamString, Base: []string{"Patient", "Organization", "Location"}},
	{Code: "address-country", Type: SearchParamString, Base: []string{"Patient", "Organization", "Location"}},
	{Code: "telecom", Type: SearchParamToken, Base: []string{"Patient", "Practitioner", "Organization"}},
	{Code: "email", Type: SearchParamToken, Base: []string{"Patient", "Practitioner"}},
	{Code: "phone", Type: SearchParamToken, Base: []string{"Patient", "Practitioner"}},

	// Plain column parameters.
	{Code: "active", Type: SearchParamToken, Base: []string{"Patient", "Practitioner", "Organization"}, Expression: "active"},
	{Code: "birthdate", Type: SearchParamDate, Base: []string{"Patient"}, Expression: "birthDate"},
	{Code: "gender", Type: SearchParamToken, Base: []string{"Patient", "Practitioner"}, Expression: "gender"},
	{Code: "death-date", Type: SearchParamDate, Base: []string{"Patient"}, Expression: "deceasedDateTime"},
	{Code: "org-name", Type: SearchParamString, Base: []string{"Organization", "Location"}, Expression: "name"},
	{Code: "status", Type: SearchParamToken, Base: []string{
		"Encounter", "Observation", "Procedure", "MedicationRequest", "ServiceRequest",
		"DiagnosticReport", "Location",
	}, Expression: "status"},
	{Code: "class", Type: SearchParamToken, Base: []string{"Encounter"}, Expression: "class.code"},
	{Code: "code", Type: SearchParamToken, Base: []string{
		"Observation", "Condition", "Procedure", "ServiceRequest", "DiagnosticReport", "AllergyIntolerance",
	}, Expression: "code.coding.code"},
	{Code: "category", Type: SearchParamToken, Base: []string{"Observation", "Condition", "ServiceRequest"},
		Expression: "category.coding.code", Array: true},
	{Code: "subject", Type: SearchParamReference, Base: []string{
		"Encounter", "Observation", "Condition", "Procedure", "MedicationRequest",
		"ServiceRequest", "DiagnosticReport",
	}, Expression: "subject.reference"},
	{Code: "patient", Type: SearchParamReference, Base: []string{"AllergyIntolerance"}, Expression: "patient.reference"},
	{Code: "encounter", Type: SearchParamReference, Base: []string{
		"Observation", "Condition", "Procedure", "ServiceRequest", "DiagnosticReport",
	}, Expression: "encounter.reference"},
	{Code: "performer", Type: SearchParamReference, Base: []string{"Observation", "Procedure"}, Expression: "performer.reference", Array: true},
	{Code: "requester", Type: SearchParamReference, Base: []string{"MedicationRequest", "ServiceRequest"}, Expression: "requester.reference"},
	{Code: "organization", Type: SearchParamReference, Base: []string{"Patient", "Practitioner"}, Expression: "managingOrganization.reference"},
	{Code: "date", Type: SearchParamDate, Base: []string{"Observation"}, Expression: "effectiveDateTime"},
	{Code: "onset-date", Type: SearchParamDate, Base: []string{"Condition"}, Expression: "onsetDateTime"},
	{Code: "clinical-status", Type: SearchParamToken, Base: []string{"Condition", "AllergyIntolerance"}, Expression: "clinicalStatus.coding.code"},
	{Code: "severity", Type: SearchParamToken, Base: []string{"Condition"}, Expression: "severity.coding.code"},
	{Code: "intent", Type: SearchParamToken, Base: []string{"MedicationRequest", "ServiceRequest"}, Expression: "intent"},
	{Code: "medication", Type: SearchParamToken, Base: []string{"MedicationRequest"}, Expression: "medicationCodeableConcept.coding.code"},
	{Code: "authoredon", Type: SearchParamDate, Base: []string{"MedicationRequest"}, Expression: "authoredOn"},
	{Code: "authored", Type: SearchParamDate, Base: []string{"ServiceRequest"}, Expression: "authoredOn"},
	{Code: "issued", Type: SearchParamDate, Base: []string{"DiagnosticReport"}, Expression: "issued"},
	{Code: "period-start", Type: SearchParamDate, Base: []string{"Encounter"}, Expression: "period.start"},

	// Definitional resources.
	{Code: "url", Type: SearchParamURI, Base: []string{"StructureDefinition", "SearchParameter", "ValueSet"}, Expression: "url"},
	{Code: "def-name", Type: SearchParamString, Base: []string{"StructureDefinition", "SearchParameter", "ValueSet"}, Expression: "name"},
	{Code: "def-status", Type: SearchParamToken, Base: []string{"StructureDefinition", "SearchParameter", "ValueSet"}, Expression: "status"},

	// Platform resources.
	{Code: "project-name", Type: SearchParamString, Base: []string{"Project"}, Expression: "name"},
	{Code: "user-email", Type: SearchParamToken, Base: []string{"User"}, Expression: "email"},
	{Code: "login-user", Type: SearchParamReference, Base: []string{"Login"}, Expression: "user.reference"},
}
