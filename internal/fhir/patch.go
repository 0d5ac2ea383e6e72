package fhir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PatchOperation is a single JSON Patch operation (RFC 6902).
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// ParsePatch decodes and sanity-checks a JSON Patch document.
func ParsePatch(data []byte) ([]PatchOperation, error) {
	var ops []PatchOperation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, BadRequestError("invalid JSON Patch document: %v", err)
	}
	for i, op := range ops {
		switch op.Op {
		case "add", "remove", "replace", "move", "copy", "test":
		default:
			return nil, BadRequestError("patch operation %d: unknown op %q", i, op.Op)
		}
		if op.Path == "" {
			return nil, BadRequestError("patch operation %d: missing path", i)
		}
	}
	return ops, nil
}

// ApplyPatch applies a JSON Patch sequence to a resource, returning a new
// resource. The input is never mutated.
func ApplyPatch(r Resource, ops []PatchOperation) (Resource, error) {
	doc := r.Clone()
	for i, op := range ops {
		var err error
		switch op.Op {
		case "add":
			err = patchSet(doc, op.Path, op.Value, true)
		case "remove":
			err = patchRemove(doc, op.Path)
		case "replace":
			err = patchSet(doc, op.Path, op.Value, false)
		case "move":
			err = patchMove(doc, op.From, op.Path)
		case "copy":
			err = patchCopyOp(doc, op.From, op.Path)
		case "test":
			err = patchTest(doc, op.Path, op.Value)
		default:
			err = fmt.Errorf("unknown op %q", op.Op)
		}
		if err != nil {
			return nil, BadRequestError("patch operation %d (%s %s): %v", i, op.Op, op.Path, err)
		}
	}
	return doc, nil
}

func splitPointer(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// walkTo descends to the container holding the final path segment.
func walkTo(doc Resource, path string) (container any, last string, err error) {
	parts := splitPointer(path)
	if len(parts) == 0 {
		return nil, "", fmt.Errorf("empty path")
	}
	var current any = map[string]any(doc)
	for _, seg := range parts[:len(parts)-1] {
		switch c := current.(type) {
		case map[string]any:
			next, ok := c[seg]
			if !ok {
				return nil, "", fmt.Errorf("path segment %q not found", seg)
			}
			current = next
		case []any:
			idx, convErr := strconv.Atoi(seg)
			if convErr != nil || idx < 0 || idx >= len(c) {
				return nil, "", fmt.Errorf("invalid array index %q", seg)
			}
			current = c[idx]
		default:
			return nil, "", fmt.Errorf("cannot traverse scalar at %q", seg)
		}
	}
	return current, parts[len(parts)-1], nil
}

// setInParent writes a replacement container back into its own parent.
// Needed when appending to or splicing a slice, which changes its identity.
func setInParent(doc Resource, path string, replacement any) error {
	parts := splitPointer(path)
	if len(parts) < 2 {
		doc[parts[0]] = replacement
		return nil
	}
	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")
	grand, key, err := walkTo(doc, parentPath)
	if err != nil {
		return err
	}
	switch g := grand.(type) {
	case map[string]any:
		g[key] = replacement
	case []any:
		idx, convErr := strconv.Atoi(key)
		if convErr != nil || idx < 0 || idx >= len(g) {
			return fmt.Errorf("invalid array index %q", key)
		}
		g[idx] = replacement
	}
	return nil
}

func patchSet(doc Resource, path string, value any, insert bool) error {
	container, last, err := walkTo(doc, path)
	if err != nil {
		return err
	}
	switch c := container.(type) {
	case map[string]any:
		if !insert {
			if _, ok := c[last]; !ok {
				return fmt.Errorf("path not found")
			}
		}
		c[last] = value
		return nil
	case []any:
		if last == "-" {
			return setInParent(doc, path, append(c, value))
		}
		idx, convErr := strconv.Atoi(last)
		if convErr != nil {
			return fmt.Errorf("invalid array index %q", last)
		}
		if insert {
			if idx < 0 || idx > len(c) {
				return fmt.Errorf("array index %d out of bounds", idx)
			}
			out := make([]any, 0, len(c)+1)
			out = append(out, c[:idx]...)
			out = append(out, value)
			out = append(out, c[idx:]...)
			return setInParent(doc, path, out)
		}
		if idx < 0 || idx >= len(c) {
			return fmt.Errorf("array index %d out of bounds", idx)
		}
		c[idx] = value
		return nil
	default:
		return fmt.Errorf("cannot write into scalar")
	}
}

func patchRemove(doc Resource, path string) error {
	container, last, err := walkTo(doc, path)
	if err != nil {
		return err
	}
	switch c := container.(type) {
	case map[string]any:
		if _, ok := c[last]; !ok {
			return fmt.Errorf("path not found")
		}
		delete(c, last)
		return nil
	case []any:
		idx, convErr := strconv.Atoi(last)
		if convErr != nil || idx < 0 || idx >= len(c) {
			return fmt.Errorf("invalid array index %q", last)
		}
		out := make([]any, 0, len(c)-1)
		out = append(out, c[:idx]...)
		out = append(out, c[idx+1:]...)
		return setInParent(doc, path, out)
	default:
		return fmt.Errorf("cannot remove from scalar")
	}
}

func patchValueAt(doc Resource, path string) (any, error) {
	container, last, err := walkTo(doc, path)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[last]
		if !ok {
			return nil, fmt.Errorf("path not found")
		}
		return v, nil
	case []any:
		idx, convErr := strconv.Atoi(last)
		if convErr != nil || idx < 0 || idx >= len(c) {
			return nil, fmt.Errorf("invalid array index %q", last)
		}
		return c[idx], nil
	default:
		return nil, fmt.Errorf("cannot read from scalar")
	}
}

func patchMove(doc Resource, from, path string) error {
	value, err := patchValueAt(doc, from)
	if err != nil {
		return fmt.Errorf("move from: %w", err)
	}
	if err := patchRemove(doc, from); err != nil {
		return fmt.Errorf("move remove: %w", err)
	}
	return patchSet(doc, path, value, true)
}

func patchCopyOp(doc Resource, from, path string) error {
	value, err := patchValueAt(doc, from)
	if err != nil {
		return fmt.Errorf("copy from: %w", err)
	}
	return patchSet(doc, path, value, true)
}

func patchTest(doc Resource, path string, expected any) error {
	actual, err := patchValueAt(doc, path)
	if err != nil {
		return err
	}
	actualJSON, _ := json.Marshal(actual)
	expectedJSON, _ := json.Marshal(expected)
	if string(actualJSON) != string(expectedJSON) {
		return fmt.Errorf("test failed: expected %s, got %s", expectedJSON, actualJSON)
	}
	return nil
}
