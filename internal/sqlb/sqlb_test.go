package sqlb

import (
	"reflect"
	"testing"
)

func TestSelectSQL(t *testing.T) {
	sql, args := Select("patient", "patient.id", "patient.content").
		Where("patient.deleted", OpEqual, false).
		Where("patient.gender", OpEqual, "female").
		OrderBy("patient.last_updated", true).
		Limit(10).
		Offset(20).
		SQL()

	want := "SELECT patient.id, patient.content FROM patient" +
		" WHERE patient.deleted = $1 AND patient.gender = $2" +
		" ORDER BY patient.last_updated DESC LIMIT $3 OFFSET $4"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	wantArgs := []any{false, "female", 10, 20}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestSelectJoinDeduplication(t *testing.T) {
	sql, _ := Select("patient", "patient.id").
		Join("fhir_humanname", "patient.id = fhir_humanname.resource_id").
		Join("fhir_humanname", "patient.id = fhir_humanname.resource_id").
		Join("fhir_address", "patient.id = fhir_address.resource_id").
		SQL()

	want := "SELECT patient.id FROM patient" +
		" JOIN fhir_humanname ON patient.id = fhir_humanname.resource_id" +
		" JOIN fhir_address ON patient.id = fhir_address.resource_id"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestSelectArrayOperators(t *testing.T) {
	sql, args := Select("observation", "observation.id").
		Where("observation.category", OpArrayContains, "vital-signs").
		Where("observation.compartments", OpArrayOverlaps, []string{"t1", "p1"}).
		SQL()

	want := "SELECT observation.id FROM observation" +
		" WHERE $1 = ANY(observation.category) AND observation.compartments && $2"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 2 {
		t.Errorf("args = %v", args)
	}
}

func TestSelectGroupBySQL(t *testing.T) {
	sql, args := Select("patient", "patient.id", "patient.content").
		Join("fhir_humanname", "patient.id = fhir_humanname.resource_id").
		Where("fhir_humanname.family", OpILike, "smi%").
		GroupBy("patient.id", "patient.content").
		OrderBy("fhir_humanname.name", false).
		OrderBy("patient.id", false).
		Limit(10).
		Offset(0).
		SQL()

	// Grouped queries window LIMIT/OFFSET over one row per group; ordering
	// columns outside the grouping are aggregated.
	want := "SELECT patient.id, patient.content FROM patient" +
		" JOIN fhir_humanname ON patient.id = fhir_humanname.resource_id" +
		" WHERE fhir_humanname.family ILIKE $1" +
		" GROUP BY patient.id, patient.content" +
		" ORDER BY MIN(fhir_humanname.name), patient.id LIMIT $2 OFFSET $3"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"smi%", 10, 0}) {
		t.Errorf("args = %v", args)
	}
}

func TestSelectJoined(t *testing.T) {
	q := Select("patient", "patient.id")
	if q.Joined() {
		t.Error("no joins added yet")
	}
	q.Join("fhir_humanname", "patient.id = fhir_humanname.resource_id")
	if !q.Joined() {
		t.Error("join not reported")
	}
}

func TestCountSQL(t *testing.T) {
	q := Select("patient", "patient.id", "patient.content").
		Join("fhir_humanname", "patient.id = fhir_humanname.resource_id").
		Where("fhir_humanname.family", OpILike, "smi%").
		OrderBy("patient.last_updated", false).
		Limit(10)

	sql, args := q.CountSQL()
	want := "SELECT COUNT(DISTINCT patient.id) FROM patient" +
		" JOIN fhir_humanname ON patient.id = fhir_humanname.resource_id" +
		" WHERE fhir_humanname.family ILIKE $1"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 1 {
		t.Errorf("args = %v", args)
	}
}

func TestInsertSQL(t *testing.T) {
	sql, args := Insert("fhir_identifier").
		Value("id", "i1").
		Value("resource_id", "r1").
		Value("value", "mrn-1").
		SQL()

	want := "INSERT INTO fhir_identifier (id, resource_id, value) VALUES ($1, $2, $3)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"i1", "r1", "mrn-1"}) {
		t.Errorf("args = %v", args)
	}
}

func TestInsertUpsertSQL(t *testing.T) {
	sql, _ := Insert("patient").
		Value("id", "p1").
		Value("content", "{}").
		Value("deleted", false).
		OnConflictUpdate("id").
		SQL()

	want := "INSERT INTO patient (id, content, deleted) VALUES ($1, $2, $3)" +
		" ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, deleted = EXCLUDED.deleted"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestUpdateSQL(t *testing.T) {
	sql, args := Update("patient").
		Set("deleted", true).
		Set("content", "").
		Where("id", OpEqual, "p1").
		SQL()

	want := "UPDATE patient SET deleted = $1, content = $2 WHERE id = $3"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{true, "", "p1"}) {
		t.Errorf("args = %v", args)
	}
}

func TestDeleteSQL(t *testing.T) {
	sql, args := Delete("fhir_address").Where("resource_id", OpEqual, "r1").SQL()
	want := "DELETE FROM fhir_address WHERE resource_id = $1"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"r1"}) {
		t.Errorf("args = %v", args)
	}
}
