package fhir

import (
	"reflect"
	"testing"
)

func TestCompartments(t *testing.T) {
	tests := []struct {
		name     string
		resource Resource
		want     []string
	}{
		{
			name: "patient is its own compartment",
			resource: Resource{
				"resourceType": "Patient",
				"id":           "p1",
			},
			want: []string{"tenant-a", "p1"},
		},
		{
			name: "observation joins its subject",
			resource: Resource{
				"resourceType": "Observation",
				"id":           "o1",
				"subject":      map[string]any{"reference": "Patient/p1"},
			},
			want: []string{"tenant-a", "p1"},
		},
		{
			name: "allergy uses the patient field",
			resource: Resource{
				"resourceType": "AllergyIntolerance",
				"id":           "a1",
				"patient":      map[string]any{"reference": "Patient/p2"},
			},
			want: []string{"tenant-a", "p2"},
		},
		{
			name: "non-patient subject is ignored",
			resource: Resource{
				"resourceType": "Observation",
				"id":           "o2",
				"subject":      map[string]any{"reference": "Device/d1"},
			},
			want: []string{"tenant-a"},
		},
		{
			name: "type outside the compartment",
			resource: Resource{
				"resourceType": "Organization",
				"id":           "org1",
			},
			want: []string{"tenant-a"},
		},
		{
			name: "missing subject",
			resource: Resource{
				"resourceType": "Condition",
				"id":           "c1",
			},
			want: []string{"tenant-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compartments(tt.resource, "tenant-a")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compartments() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompartmentsAlwaysIncludeTenant(t *testing.T) {
	got := Compartments(Resource{"resourceType": "Patient"}, "t")
	if len(got) == 0 || got[0] != "t" {
		t.Errorf("tenant missing from compartments: %v", got)
	}
}
