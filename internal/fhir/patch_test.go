package fhir

import (
	"testing"
)

func TestParsePatch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind OutcomeKind
	}{
		{"valid", `[{"op":"replace","path":"/active","value":true}]`, OutcomeOK},
		{"unknown op", `[{"op":"merge","path":"/active"}]`, OutcomeBadRequest},
		{"missing path", `[{"op":"remove"}]`, OutcomeBadRequest},
		{"not an array", `{"op":"add"}`, OutcomeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePatch([]byte(tt.body))
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("outcome = %v, want %v (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestApplyPatch(t *testing.T) {
	base := Resource{
		"resourceType": "Patient",
		"active":       true,
		"name": []any{
			map[string]any{"family": "Smith"},
		},
	}

	tests := []struct {
		name     string
		ops      []PatchOperation
		wantKind OutcomeKind
		check    func(t *testing.T, r Resource)
	}{
		{
			name: "replace scalar",
			ops:  []PatchOperation{{Op: "replace", Path: "/active", Value: false}},
			check: func(t *testing.T, r Resource) {
				if r["active"] != false {
					t.Errorf("active = %v", r["active"])
				}
			},
		},
		{
			name: "add nested field",
			ops:  []PatchOperation{{Op: "add", Path: "/name/0/given", Value: []any{"Jo"}}},
			check: func(t *testing.T, r Resource) {
				name := r["name"].([]any)[0].(map[string]any)
				if _, ok := name["given"]; !ok {
					t.Error("given not added")
				}
			},
		},
		{
			name: "append to array",
			ops:  []PatchOperation{{Op: "add", Path: "/name/-", Value: map[string]any{"family": "Jones"}}},
			check: func(t *testing.T, r Resource) {
				if len(r["name"].([]any)) != 2 {
					t.Errorf("name length = %d", len(r["name"].([]any)))
				}
			},
		},
		{
			name: "remove field",
			ops:  []PatchOperation{{Op: "remove", Path: "/active"}},
			check: func(t *testing.T, r Resource) {
				if _, ok := r["active"]; ok {
					t.Error("active not removed")
				}
			},
		},
		{
			name: "move field",
			ops:  []PatchOperation{{Op: "move", From: "/active", Path: "/deceasedBoolean"}},
			check: func(t *testing.T, r Resource) {
				if _, ok := r["active"]; ok {
					t.Error("source not removed")
				}
				if r["deceasedBoolean"] != true {
					t.Errorf("destination = %v", r["deceasedBoolean"])
				}
			},
		},
		{
			name: "test passes",
			ops: []PatchOperation{
				{Op: "test", Path: "/active", Value: true},
				{Op: "replace", Path: "/active", Value: false},
			},
			check: func(t *testing.T, r Resource) {
				if r["active"] != false {
					t.Errorf("active = %v", r["active"])
				}
			},
		},
		{
			name:     "test fails",
			ops:      []PatchOperation{{Op: "test", Path: "/active", Value: false}},
			wantKind: OutcomeBadRequest,
		},
		{
			name:     "replace missing path",
			ops:      []PatchOperation{{Op: "replace", Path: "/nothing/here", Value: 1}},
			wantKind: OutcomeBadRequest,
		},
		{
			name:     "array index out of bounds",
			ops:      []PatchOperation{{Op: "replace", Path: "/name/9", Value: map[string]any{}}},
			wantKind: OutcomeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPatch(base, tt.ops)
			if tt.wantKind != OutcomeOK {
				if kind := KindOf(err); kind != tt.wantKind {
					t.Fatalf("outcome = %v, want %v (err: %v)", kind, tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestApplyPatchDoesNotMutateInput(t *testing.T) {
	base := Resource{"resourceType": "Patient", "active": true}
	if _, err := ApplyPatch(base, []PatchOperation{{Op: "replace", Path: "/active", Value: false}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base["active"] != true {
		t.Error("input resource was mutated")
	}
}
