package lookup

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

type fakeExecer struct {
	stmts []string
	args  [][]any
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("OK"), nil
}

func param(code string, typ fhir.SearchParamType) *fhir.SearchParameter {
	return &fhir.SearchParameter{Code: code, Type: typ}
}

func TestClaimedBy(t *testing.T) {
	tables := All()

	tests := []struct {
		code      string
		typ       fhir.SearchParamType
		wantTable string
	}{
		{"name", fhir.SearchParamString, "fhir_humanname"},
		{"family", fhir.SearchParamString, "fhir_humanname"},
		{"given", fhir.SearchParamString, "fhir_humanname"},
		{"address", fhir.SearchParamString, "fhir_address"},
		{"address-city", fhir.SearchParamString, "fhir_address"},
		{"telecom", fhir.SearchParamToken, "fhir_contactpoint"},
		{"email", fhir.SearchParamToken, "fhir_contactpoint"},
		{"phone", fhir.SearchParamToken, "fhir_contactpoint"},
		{"identifier", fhir.SearchParamToken, "fhir_identifier"},
		{"gender", fhir.SearchParamToken, ""},
		{"birthdate", fhir.SearchParamDate, ""},
		// A string parameter named like a token concern is not claimed.
		{"identifier", fhir.SearchParamString, ""},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+string(tt.typ), func(t *testing.T) {
			got := ClaimedBy(tables, param(tt.code, tt.typ))
			if tt.wantTable == "" {
				if got != nil {
					t.Errorf("expected no claim, got %s", got.Name())
				}
				return
			}
			if got == nil || got.Name() != tt.wantTable {
				t.Errorf("claimed by %v, want %s", got, tt.wantTable)
			}
		})
	}
}

func TestHumanNameIndex(t *testing.T) {
	db := &fakeExecer{}
	table := &HumanNameTable{}

	resource := fhir.Resource{
		"resourceType": "Patient",
		"id":           "p1",
		"name": []any{
			map[string]any{"family": "Smith", "given": []any{"Jo", "Ann"}},
			map[string]any{"text": "Dr. Jones"},
		},
	}

	if err := table.Index(context.Background(), db, "p1", resource); err != nil {
		t.Fatalf("Index: %v", err)
	}

	// One delete plus one insert per name entry.
	if len(db.stmts) != 3 {
		t.Fatalf("got %d statements: %v", len(db.stmts), db.stmts)
	}
	if !strings.HasPrefix(db.stmts[0], "DELETE FROM fhir_humanname") {
		t.Errorf("first statement = %q", db.stmts[0])
	}

	// First name row carries the formatted name and joined given parts.
	first := db.args[1]
	if first[2] != "Jo Ann Smith" || first[3] != "Jo Ann" || first[4] != "Smith" {
		t.Errorf("first insert args = %v", first)
	}
	second := db.args[2]
	if second[2] != "Dr. Jones" {
		t.Errorf("second insert args = %v", second)
	}
}

func TestAddressIndexSingleObject(t *testing.T) {
	db := &fakeExecer{}
	table := &AddressTable{}

	// Location carries a single address object rather than an array.
	resource := fhir.Resource{
		"resourceType": "Location",
		"id":           "l1",
		"address":      map[string]any{"city": "Springfield", "state": "IL"},
	}

	if err := table.Index(context.Background(), db, "l1", resource); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(db.stmts) != 2 {
		t.Fatalf("got %d statements", len(db.stmts))
	}
	args := db.args[1]
	if args[3] != "Springfield" || args[4] != "IL" {
		t.Errorf("insert args = %v", args)
	}
}

func TestContactPointFilterAddsSystemPredicate(t *testing.T) {
	table := &ContactPointTable{}

	tests := []struct {
		code       string
		wantSystem bool
	}{
		{"telecom", false},
		{"email", true},
		{"phone", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			q := sqlb.Select("patient", "patient.id")
			err := table.AddFilter(q, param(tt.code, fhir.SearchParamToken),
				fhir.Filter{Code: tt.code, Operator: fhir.OpEquals, Value: "jo@example.org"})
			if err != nil {
				t.Fatalf("AddFilter: %v", err)
			}
			sql, _ := q.SQL()
			hasSystem := strings.Contains(sql, "fhir_contactpoint.system =")
			if hasSystem != tt.wantSystem {
				t.Errorf("sql = %q, system predicate = %v, want %v", sql, hasSystem, tt.wantSystem)
			}
		})
	}
}

func TestIdentifierFilterSplitsToken(t *testing.T) {
	table := &IdentifierTable{}

	t.Run("system and value", func(t *testing.T) {
		q := sqlb.Select("patient", "patient.id")
		err := table.AddFilter(q, param("identifier", fhir.SearchParamToken),
			fhir.Filter{Code: "identifier", Operator: fhir.OpEquals, Value: "http://hospital.org/mrn|12345"})
		if err != nil {
			t.Fatalf("AddFilter: %v", err)
		}
		_, args := q.SQL()
		if len(args) != 2 || args[0] != "http://hospital.org/mrn" || args[1] != "12345" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("bare value", func(t *testing.T) {
		q := sqlb.Select("patient", "patient.id")
		err := table.AddFilter(q, param("identifier", fhir.SearchParamToken),
			fhir.Filter{Code: "identifier", Operator: fhir.OpEquals, Value: "12345"})
		if err != nil {
			t.Fatalf("AddFilter: %v", err)
		}
		sql, args := q.SQL()
		if strings.Contains(sql, "system") {
			t.Errorf("unexpected system predicate: %q", sql)
		}
		if len(args) != 1 || args[0] != "12345" {
			t.Errorf("args = %v", args)
		}
	})
}

func TestStringFilterOperators(t *testing.T) {
	tests := []struct {
		op       fhir.FilterOperator
		wantSQL  string
		wantArg  string
		wantFail bool
	}{
		{op: fhir.OpEquals, wantSQL: "ILIKE", wantArg: "smi%"},
		{op: fhir.OpContains, wantSQL: "ILIKE", wantArg: "%smi%"},
		{op: fhir.OpExact, wantSQL: "=", wantArg: "smi"},
		{op: fhir.OpGreaterThan, wantFail: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			q := sqlb.Select("patient", "patient.id")
			err := stringFilter(q, "fhir_humanname.family", fhir.Filter{Code: "family", Operator: tt.op, Value: "smi"})
			if tt.wantFail {
				if fhir.KindOf(err) != fhir.OutcomeBadRequest {
					t.Errorf("expected bad request, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("stringFilter: %v", err)
			}
			sql, args := q.SQL()
			if !strings.Contains(sql, tt.wantSQL) {
				t.Errorf("sql = %q, want operator %q", sql, tt.wantSQL)
			}
			if args[0] != tt.wantArg {
				t.Errorf("arg = %v, want %q", args[0], tt.wantArg)
			}
		})
	}
}

func TestLikeEscape(t *testing.T) {
	if got := likeEscape(`50%_a\b`); got != `50\%\_a\\b` {
		t.Errorf("likeEscape = %q", got)
	}
}

func TestDDLStatements(t *testing.T) {
	for _, table := range All() {
		stmts := table.DDL()
		if len(stmts) == 0 {
			t.Errorf("%s: no DDL", table.Name())
			continue
		}
		if !strings.Contains(stmts[0], table.Name()) {
			t.Errorf("%s: first DDL statement does not create the table: %q", table.Name(), stmts[0])
		}
	}
}
