package fhir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Resource is a polymorphic FHIR resource: an open JSON object constrained
// by the schema catalog for its resourceType. The catalog is data, not code,
// so resources are not modeled as per-type structs.
type Resource map[string]any

// ParseResource decodes a raw JSON body into a Resource.
func ParseResource(data []byte) (Resource, error) {
	var r Resource
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse resource: %w", err)
	}
	return r, nil
}

func (r Resource) Type() string {
	t, _ := r["resourceType"].(string)
	return t
}

func (r Resource) ID() string {
	id, _ := r["id"].(string)
	return id
}

func (r Resource) SetID(id string) {
	r["id"] = id
}

// Meta returns the resource's meta block, creating it if absent.
func (r Resource) Meta() map[string]any {
	if m, ok := r["meta"].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	r["meta"] = m
	return m
}

// MetaString reads a string-valued meta field without creating the meta block.
func (r Resource) MetaString(key string) string {
	m, ok := r["meta"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func (r Resource) VersionID() string   { return r.MetaString("versionId") }
func (r Resource) Project() string     { return r.MetaString("project") }
func (r Resource) Author() string      { return r.MetaString("author") }
func (r Resource) LastUpdated() string { return r.MetaString("lastUpdated") }

// CompartmentIDs returns the compartments recorded in meta.
func (r Resource) CompartmentIDs() []string {
	m, ok := r["meta"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["compartment"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of the resource via a JSON round trip.
func (r Resource) Clone() Resource {
	data, _ := json.Marshal(r)
	var out Resource
	_ = json.Unmarshal(data, &out)
	return out
}

// ContentEqual reports whether two resources carry identical content,
// ignoring the server-managed meta block. Used to detect no-op writes.
func ContentEqual(a, b Resource) bool {
	return bytes.Equal(stripMeta(a), stripMeta(b))
}

func stripMeta(r Resource) []byte {
	c := r.Clone()
	delete(c, "meta")
	data, _ := json.Marshal(c)
	return data
}

// ParseReference splits a reference string like "Patient/123" into its
// resource type and id. Returns empty strings if malformed.
func ParseReference(ref string) (resourceType, id string) {
	idx := strings.Index(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", ""
	}
	return ref[:idx], ref[idx+1:]
}

// DecodeField re-marshals a resource field into typed values. FHIR fields
// may hold a single object or an array of objects; both decode to a slice.
func DecodeField[T any](r Resource, field string) []T {
	raw, ok := r[field]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Typed views of the composite fields indexed by the lookup tables.

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// Formatted renders a display form used for whole-name matching.
func (n HumanName) Formatted() string {
	if n.Text != "" {
		return n.Text
	}
	parts := make([]string, 0, len(n.Given)+1)
	parts = append(parts, n.Given...)
	if n.Family != "" {
		parts = append(parts, n.Family)
	}
	return strings.Join(parts, " ")
}

type Address struct {
	Use        string   `json:"use,omitempty"`
	Type       string   `json:"type,omitempty"`
	Text       string   `json:"text,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	District   string   `json:"district,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// Formatted renders a single-line form used for whole-address matching.
func (a Address) Formatted() string {
	if a.Text != "" {
		return a.Text
	}
	parts := make([]string, 0, 6)
	parts = append(parts, a.Line...)
	for _, p := range []string{a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Now returns the current UTC time truncated to millisecond precision,
// the granularity stored in meta.lastUpdated.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
