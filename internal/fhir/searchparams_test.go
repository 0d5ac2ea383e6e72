package fhir

import (
	"reflect"
	"testing"
)

func TestColumnNameForCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"birthdate", "birthdate"},
		{"address-city", "addresscity"},
		{"clinical-status", "clinicalstatus"},
		{"def-name", "defname"},
		{"MixedCase", "mixedcase"},
	}
	for _, tt := range tests {
		if got := ColumnNameForCode(tt.code); got != tt.want {
			t.Errorf("ColumnNameForCode(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestEvalExpression(t *testing.T) {
	resource := Resource{
		"resourceType": "Observation",
		"status":       "final",
		"code": map[string]any{
			"coding": []any{
				map[string]any{"system": "http://loinc.org", "code": "8867-4"},
				map[string]any{"system": "http://example.org", "code": "hr"},
			},
		},
		"valueQuantity": map[string]any{"value": float64(72)},
		"active":        true,
	}

	tests := []struct {
		expr string
		want []string
	}{
		{"status", []string{"final"}},
		{"code.coding.code", []string{"8867-4", "hr"}},
		{"valueQuantity.value", []string{"72"}},
		{"active", []string{"true"}},
		{"code.text", nil},
		{"missing.path", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := EvalExpression(resource, tt.expr)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EvalExpression(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalExpressionArrayFanOut(t *testing.T) {
	resource := Resource{
		"resourceType": "Patient",
		"name": []any{
			map[string]any{"family": "Smith"},
			map[string]any{"family": "Jones"},
			map[string]any{"given": []any{"Alex"}},
		},
	}
	got := EvalExpression(resource, "name.family")
	want := []string{"Smith", "Jones"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
