package fhir

// CompartmentDefinition declares which resource types belong to a
// clinical-subject compartment and the candidate reference fields that link
// them to the subject. Fields may hold a single reference or an array.
type CompartmentDefinition struct {
	// SubjectType is the compartment's subject resource type.
	SubjectType string
	// Resources maps resource type to candidate reference field names,
	// checked in order.
	Resources map[string][]string
}

// PatientCompartment links clinical resources to the patient they are about.
var PatientCompartment = CompartmentDefinition{
	SubjectType: "Patient",
	Resources: map[string][]string{
		"AllergyIntolerance": {"patient"},
		"Condition":          {"subject"},
		"DiagnosticReport":   {"subject"},
		"Encounter":          {"subject"},
		"MedicationRequest":  {"subject"},
		"Observation":        {"subject"},
		"Procedure":          {"subject"},
		"ServiceRequest":     {"subject"},
	},
}

// Compartments computes the full compartment set for a resource: the owning
// tenant, the resource's own id when it is itself a compartment subject, and
// the clinical subject when a declared candidate field references one.
// Pure function; recomputed on every write and never trusted from input.
func Compartments(r Resource, tenant string) []string {
	out := []string{tenant}

	resourceType := r.Type()
	if resourceType == PatientCompartment.SubjectType && r.ID() != "" {
		return append(out, r.ID())
	}

	fields, ok := PatientCompartment.Resources[resourceType]
	if !ok {
		return out
	}
	for _, field := range fields {
		if id := subjectID(r, field, PatientCompartment.SubjectType); id != "" {
			return append(out, id)
		}
	}
	return out
}

// subjectID extracts the referenced subject id from a candidate field when
// the reference points at the subject type.
func subjectID(r Resource, field, subjectType string) string {
	for _, ref := range DecodeField[Reference](r, field) {
		refType, id := ParseReference(ref.Reference)
		if refType == subjectType && id != "" {
			return id
		}
	}
	return ""
}
