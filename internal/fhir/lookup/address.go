package lookup

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medcore/fhirstore/internal/fhir"
	"github.com/medcore/fhirstore/internal/sqlb"
)

const addressTable = "fhir_address"

// AddressTable indexes postal addresses: one row per address entry with the
// formatted whole address plus its searchable parts.
type AddressTable struct{}

func (t *AddressTable) Name() string { return addressTable }

var addressColumns = map[string]string{
	"address":            "address",
	"address-city":       "city",
	"address-state":      "state",
	"address-postalcode": "postal_code",
	"address-country":    "country",
}

func (t *AddressTable) Claims(p *fhir.SearchParameter) bool {
	if p.Type != fhir.SearchParamString {
		return false
	}
	_, ok := addressColumns[p.Code]
	return ok
}

func (t *AddressTable) AddJoin(q *sqlb.SelectQuery, resourceTable string) {
	q.Join(addressTable, joinOn(addressTable, resourceTable))
}

func (t *AddressTable) AddFilter(q *sqlb.SelectQuery, p *fhir.SearchParameter, f fhir.Filter) error {
	return stringFilter(q, addressTable+"."+addressColumns[p.Code], f)
}

func (t *AddressTable) AddSort(q *sqlb.SelectQuery, p *fhir.SearchParameter, rule fhir.SortRule) {
	q.OrderBy(addressTable+"."+addressColumns[p.Code], rule.Descending)
}

func (t *AddressTable) Index(ctx context.Context, db Execer, resourceID string, r fhir.Resource) error {
	if err := t.DeleteRows(ctx, db, resourceID); err != nil {
		return err
	}
	for _, addr := range fhir.DecodeField[fhir.Address](r, "address") {
		sql, args := sqlb.Insert(addressTable).
			Value("id", uuid.NewString()).
			Value("resource_id", resourceID).
			Value("address", addr.Formatted()).
			Value("city", addr.City).
			Value("state", addr.State).
			Value("postal_code", addr.PostalCode).
			Value("country", addr.Country).
			SQL()
		if _, err := db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("index address: %w", err)
		}
	}
	return nil
}

func (t *AddressTable) DeleteRows(ctx context.Context, db Execer, resourceID string) error {
	sql, args := sqlb.Delete(addressTable).Where("resource_id", sqlb.OpEqual, resourceID).SQL()
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete address rows: %w", err)
	}
	return nil
}

func (t *AddressTable) DDL() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS fhir_address (
			id UUID PRIMARY KEY,
			resource_id UUID NOT NULL,
			address TEXT,
			city TEXT,
			state TEXT,
			postal_code TEXT,
			country TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS fhir_address_resource_idx ON fhir_address (resource_id)`,
		`CREATE INDEX IF NOT EXISTS fhir_address_city_idx ON fhir_address (city)`,
	}
}
