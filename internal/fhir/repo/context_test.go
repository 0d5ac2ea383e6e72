package repo

import (
	"testing"
)

func TestContextCanSee(t *testing.T) {
	tests := []struct {
		name         string
		ctx          Context
		compartments []string
		want         bool
	}{
		{
			name:         "same tenant",
			ctx:          Context{Project: "t1"},
			compartments: []string{"t1", "p1"},
			want:         true,
		},
		{
			name:         "other tenant",
			ctx:          Context{Project: "t1"},
			compartments: []string{"t2", "p1"},
			want:         false,
		},
		{
			name:         "public resources visible to every tenant",
			ctx:          Context{Project: "t1"},
			compartments: []string{"public"},
			want:         true,
		},
		{
			name:         "super admin sees everything",
			ctx:          Context{Project: "t1", SuperAdmin: true},
			compartments: []string{"t2"},
			want:         true,
		},
		{
			name:         "compartment restriction matches",
			ctx:          Context{Project: "t1", Compartments: []string{"p1"}},
			compartments: []string{"t1", "p1"},
			want:         true,
		},
		{
			name:         "compartment restriction excludes",
			ctx:          Context{Project: "t1", Compartments: []string{"p2"}},
			compartments: []string{"t1", "p1"},
			want:         false,
		},
		{
			name:         "restriction does not bypass tenant isolation",
			ctx:          Context{Project: "t1", Compartments: []string{"p1"}},
			compartments: []string{"t2", "p1"},
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.CanSee(tt.compartments); got != tt.want {
				t.Errorf("CanSee(%v) = %v, want %v", tt.compartments, got, tt.want)
			}
		})
	}
}

func TestContextPrivileged(t *testing.T) {
	if (&Context{}).Privileged() {
		t.Error("plain context must not be privileged")
	}
	if !(&Context{SuperAdmin: true}).Privileged() {
		t.Error("super admin must be privileged")
	}
	if !(&Context{ProjectAdmin: true}).Privileged() {
		t.Error("project admin must be privileged")
	}
}
