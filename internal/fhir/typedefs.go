package fhir

// typeDefinitions is the built-in resource type table. Field shape is the
// JSON shape: scalar, array, or object. Validation rejects fields that are
// not listed, so these tables define the full writable surface per type.
var typeDefinitions = []TypeDefinition{
	{
		Name: "Patient",
		Fields: map[string]FieldKind{
			"identifier":            FieldArray,
			"active":                FieldScalar,
			"name":                  FieldArray,
			"telecom":               FieldArray,
			"gender":                FieldScalar,
			"birthDate":             FieldScalar,
			"deceasedBoolean":       FieldScalar,
			"deceasedDateTime":      FieldScalar,
			"address":               FieldArray,
			"maritalStatus":         FieldObject,
			"multipleBirthBoolean":  FieldScalar,
			"multipleBirthInteger":  FieldScalar,
			"photo":                 FieldArray,
			"contact":               FieldArray,
			"communication":         FieldArray,
			"generalPractitioner":   FieldArray,
			"managingOrganization":  FieldObject,
			"link":                  FieldArray,
			"text":                  FieldObject,
			"extension":             FieldArray,
		},
	},
	{
		Name: "Practitioner",
		Fields: map[string]FieldKind{
			"identifier":           FieldArray,
			"active":               FieldScalar,
			"name":                 FieldArray,
			"telecom":              FieldArray,
			"address":              FieldArray,
			"gender":               FieldScalar,
			"birthDate":            FieldScalar,
			"qualification":        FieldArray,
			"communication":        FieldArray,
			"managingOrganization": FieldObject,
			"text":                 FieldObject,
			"extension":            FieldArray,
		},
	},
	{
		Name: "Organization",
		Fields: map[string]FieldKind{
			"identifier": FieldArray,
			"active":     FieldScalar,
			"type":       FieldArray,
			"name":       FieldScalar,
			"alias":      FieldArray,
			"telecom":    FieldArray,
			"address":    FieldArray,
			"partOf":     FieldObject,
			"contact":    FieldArray,
			"endpoint":   FieldArray,
			"text":       FieldObject,
			"extension":  FieldArray,
		},
	},
	{
		Name: "Location",
		Fields: map[string]FieldKind{
			"identifier":           FieldArray,
			"status":               FieldScalar,
			"name":                 FieldScalar,
			"alias":                FieldArray,
			"description":          FieldScalar,
			"mode":                 FieldScalar,
			"type":                 FieldArray,
			"telecom":              FieldArray,
			"address":              FieldObject,
			"position":             FieldObject,
			"managingOrganization": FieldObject,
			"partOf":               FieldObject,
			"hoursOfOperation":     FieldArray,
			"text":                 FieldObject,
			"extension":            FieldArray,
		},
	},
	{
		Name:     "Encounter",
		Required: []string{"status", "class"},
		Fields: map[string]FieldKind{
			"identifier":      FieldArray,
			"status":          FieldScalar,
			"statusHistory":   FieldArray,
			"class":           FieldObject,
			"classHistory":    FieldArray,
			"type":            FieldArray,
			"serviceType":     FieldObject,
			"priority":        FieldObject,
			"subject":         FieldObject,
			"episodeOfCare":   FieldArray,
			"basedOn":         FieldArray,
			"participant":     FieldArray,
			"appointment":     FieldArray,
			"period":          FieldObject,
			"length":          FieldObject,
			"reasonCode":      FieldArray,
			"diagnosis":       FieldArray,
			"hospitalization": FieldObject,
			"location":        FieldArray,
			"serviceProvider": FieldObject,
			"partOf":          FieldObject,
			"text":            FieldObject,
			"extension":       FieldArray,
		},
	},
	{
		Name:     "Observation",
		Required: []string{"status", "code"},
		Fields: map[string]FieldKind{
			"identifier":           FieldArray,
			"basedOn":              FieldArray,
			"partOf":               FieldArray,
			"status":               FieldScalar,
			"category":             FieldArray,
			"code":                 FieldObject,
			"subject":              FieldObject,
			"focus":                FieldArray,
			"encounter":            FieldObject,
			"effectiveDateTime":    FieldScalar,
			"effectivePeriod":      FieldObject,
			"issued":               FieldScalar,
			"performer":            FieldArray,
			"valueQuantity":        FieldObject,
			"valueCodeableConcept": FieldObject,
			"valueString":          FieldScalar,
			"valueBoolean":         FieldScalar,
			"valueInteger":         FieldScalar,
			"valueRange":           FieldObject,
			"dataAbsentReason":     FieldObject,
			"interpretation":       FieldArray,
			"note":                 FieldArray,
			"bodySite":             FieldObject,
			"method":               FieldObject,
			"specimen":             FieldObject,
			"device":               FieldObject,
			"referenceRange":       FieldArray,
			"hasMember":            FieldArray,
			"derivedFrom":          FieldArray,
			"component":            FieldArray,
			"text":                 FieldObject,
			"extension":            FieldArray,
		},
	},
	{
		Name:     "Condition",
		Required: []string{"subject"},
		Fields: map[string]FieldKind{
			"identifier":         FieldArray,
			"clinicalStatus":     FieldObject,
			"verificationStatus": FieldObject,
			"category":           FieldArray,
			"severity":           FieldObject,
			"code":               FieldObject,
			"bodySite":           FieldArray,
			"subject":            FieldObject,
			"encounter":          FieldObject,
			"onsetDateTime":      FieldScalar,
			"onsetAge":           FieldObject,
			"abatementDateTime":  FieldScalar,
			"recordedDate":       FieldScalar,
			"recorder":           FieldObject,
			"asserter":           FieldObject,
			"stage":              FieldArray,
			"evidence":           FieldArray,
			"note":               FieldArray,
			"text":               FieldObject,
			"extension":          FieldArray,
		},
	},
	{
		Name:     "Procedure",
		Required: []string{"status", "subject"},
		Fields: map[string]FieldKind{
			"identifier":            FieldArray,
			"instantiatesCanonical": FieldArray,
			"basedOn":               FieldArray,
			"partOf":                FieldArray,
			"status":                FieldScalar,
			"statusReason":          FieldObject,
			"category":              FieldObject,
			"code":                  FieldObject,
			"subject":               FieldObject,
			"encounter":             FieldObject,
			"performedDateTime":     FieldScalar,
			"performedPeriod":       FieldObject,
			"recorder":              FieldObject,
			"asserter":              FieldObject,
			"performer":             FieldArray,
			"location":              FieldObject,
			"reasonCode":            FieldArray,
			"bodySite":              FieldArray,
			"outcome":               FieldObject,
			"report":                FieldArray,
			"complication":          FieldArray,
			"followUp":              FieldArray,
			"note":                  FieldArray,
			"text":                  FieldObject,
			"extension":             FieldArray,
		},
	},
	{
		Name:     "MedicationRequest",
		Required: []string{"status", "intent", "subject"},
		Fields: map[string]FieldKind{
			"identifier":                FieldArray,
			"status":                    FieldScalar,
			"statusReason":              FieldObject,
			"intent":                    FieldScalar,
			"category":                  FieldArray,
			"priority":                  FieldScalar,
			"doNotPerform":              FieldScalar,
			"medicationCodeableConcept": FieldObject,
			"medicationReference":       FieldObject,
			"subject":                   FieldObject,
			"encounter":                 FieldObject,
			"authoredOn":                FieldScalar,
			"requester":                 FieldObject,
			"performer":                 FieldObject,
			"recorder":                  FieldObject,
			"reasonCode":                FieldArray,
			"basedOn":                   FieldArray,
			"groupIdentifier":           FieldObject,
			"note":                      FieldArray,
			"dosageInstruction":         FieldArray,
			"dispenseRequest":           FieldObject,
			"substitution":              FieldObject,
			"text":                      FieldObject,
			"extension":                 FieldArray,
		},
	},
	{
		Name:     "ServiceRequest",
		Required: []string{"status", "intent", "subject"},
		Fields: map[string]FieldKind{
			"identifier":         FieldArray,
			"status":             FieldScalar,
			"intent":             FieldScalar,
			"category":           FieldArray,
			"priority":           FieldScalar,
			"code":               FieldObject,
			"subject":            FieldObject,
			"encounter":          FieldObject,
			"occurrenceDateTime": FieldScalar,
			"occurrencePeriod":   FieldObject,
			"authoredOn":         FieldScalar,
			"requester":          FieldObject,
			"performer":          FieldArray,
			"reasonCode":         FieldArray,
			"note":               FieldArray,
			"text":               FieldObject,
			"extension":          FieldArray,
		},
	},
	{
		Name:     "DiagnosticReport",
		Required: []string{"status", "code"},
		Fields: map[string]FieldKind{
			"identifier":         FieldArray,
			"basedOn":            FieldArray,
			"status":             FieldScalar,
			"category":           FieldArray,
			"code":               FieldObject,
			"subject":            FieldObject,
			"encounter":          FieldObject,
			"effectiveDateTime":  FieldScalar,
			"issued":             FieldScalar,
			"performer":          FieldArray,
			"resultsInterpreter": FieldArray,
			"specimen":           FieldArray,
			"result":             FieldArray,
			"conclusion":         FieldScalar,
			"conclusionCode":     FieldArray,
			"presentedForm":      FieldArray,
			"text":               FieldObject,
			"extension":          FieldArray,
		},
	},
	{
		Name:     "AllergyIntolerance",
		Required: []string{"patient"},
		Fields: map[string]FieldKind{
			"identifier":         FieldArray,
			"clinicalStatus":     FieldObject,
			"verificationStatus": FieldObject,
			"type":               FieldScalar,
			"category":           FieldArray,
			"criticality":        FieldScalar,
			"code":               FieldObject,
			"patient":            FieldObject,
			"encounter":          FieldObject,
			"onsetDateTime":      FieldScalar,
			"recordedDate":       FieldScalar,
			"recorder":           FieldObject,
			"asserter":           FieldObject,
			"reaction":           FieldArray,
			"note":               FieldArray,
			"text":               FieldObject,
			"extension":          FieldArray,
		},
	},
	{
		Name:     "StructureDefinition",
		Required: []string{"url", "name", "status"},
		Fields: map[string]FieldKind{
			"url":          FieldScalar,
			"version":      FieldScalar,
			"name":         FieldScalar,
			"status":       FieldScalar,
			"kind":         FieldScalar,
			"abstract":     FieldScalar,
			"type":         FieldScalar,
			"description":  FieldScalar,
			"snapshot":     FieldObject,
			"differential": FieldObject,
			"text":         FieldObject,
			"extension":    FieldArray,
		},
	},
	{
		Name:     "SearchParameter",
		Required: []string{"url", "name", "status"},
		Fields: map[string]FieldKind{
			"url":         FieldScalar,
			"version":     FieldScalar,
			"name":        FieldScalar,
			"status":      FieldScalar,
			"code":        FieldScalar,
			"base":        FieldArray,
			"type":        FieldScalar,
			"expression":  FieldScalar,
			"description": FieldScalar,
			"text":        FieldObject,
			"extension":   FieldArray,
		},
	},
	{
		Name:     "ValueSet",
		Required: []string{"status"},
		Fields: map[string]FieldKind{
			"url":         FieldScalar,
			"version":     FieldScalar,
			"name":        FieldScalar,
			"status":      FieldScalar,
			"description": FieldScalar,
			"compose":     FieldObject,
			"expansion":   FieldObject,
			"text":        FieldObject,
			"extension":   FieldArray,
		},
	},
	{
		Name:     "Project",
		Required: []string{"name"},
		Fields: map[string]FieldKind{
			"name":        FieldScalar,
			"description": FieldScalar,
			"owner":       FieldObject,
			"features":    FieldArray,
			"text":        FieldObject,
			"extension":   FieldArray,
		},
	},
	{
		Name:     "User",
		Required: []string{"email"},
		Fields: map[string]FieldKind{
			"email":        FieldScalar,
			"passwordHash": FieldScalar,
			"firstName":    FieldScalar,
			"lastName":     FieldScalar,
			"admin":        FieldScalar,
			"text":         FieldObject,
			"extension":    FieldArray,
		},
	},
	{
		Name:     "Login",
		Required: []string{"user"},
		Fields: map[string]FieldKind{
			"user":          FieldObject,
			"client":        FieldObject,
			"scope":         FieldScalar,
			"authTime":      FieldScalar,
			"refreshSecret": FieldScalar,
			"text":          FieldObject,
			"extension":     FieldArray,
		},
	},
}
