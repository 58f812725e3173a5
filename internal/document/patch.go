package document

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// ToMap converts typed resume data into a generic JSON document suitable for
// path addressing.
func ToMap(data types.ResumeData) (map[string]any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDocumentInvalid,
			"Resume document failed to serialize", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeDocumentInvalid,
			"Resume document failed to deserialize", err)
	}
	return doc, nil
}

// FromMap converts a generic JSON document back into typed resume data.
// Unknown keys are dropped, which is also how parser output is normalized.
func FromMap(doc map[string]any) (types.ResumeData, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return types.ResumeData{}, errors.NewInternalError(errors.ErrCodeDocumentInvalid,
			"Resume document failed to serialize", err)
	}
	var data types.ResumeData
	if err := json.Unmarshal(b, &data); err != nil {
		return types.ResumeData{}, errors.NewValidationError(errors.ErrCodeDocumentInvalid,
			"Resume document has incompatible field types", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document so callers can mutate the copy
// without sharing slices with the original.
func Clone(data types.ResumeData) (types.ResumeData, error) {
	doc, err := ToMap(data)
	if err != nil {
		return types.ResumeData{}, err
	}
	return FromMap(doc)
}

// splitPath validates and splits a dotted field path like
// "experience.0.highlights.1" or "personalInfo.summary".
func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
			"Field path is empty", nil)
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
				fmt.Sprintf("Field path %q has an empty segment", path), nil)
		}
	}
	return segments, nil
}

// GetPath resolves a dotted field path against a generic resume document.
// Map segments are keys, slice segments are decimal indexes.
func GetPath(doc map[string]any, path string) (any, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	var current any = doc
	for _, seg := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
					fmt.Sprintf("Field path %q: no field %q", path, seg), nil)
			}
			current = next
		case []any:
			idx, convErr := strconv.Atoi(seg)
			if convErr != nil {
				return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
					fmt.Sprintf("Field path %q: segment %q is not an index", path, seg), nil)
			}
			if idx < 0 || idx >= len(node) {
				return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
					fmt.Sprintf("Field path %q: index %d out of range (len %d)", path, idx, len(node)), nil)
			}
			current = node[idx]
		default:
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
				fmt.Sprintf("Field path %q: cannot descend into %T at %q", path, current, seg), nil)
		}
	}
	return current, nil
}

// SetPath assigns a value at a dotted field path, mutating the document in
// place. Setting a slice index equal to the current length appends, which is
// how addition suggestions land new entries.
func SetPath(doc map[string]any, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	_, err = setValue(doc, path, segments, value)
	return err
}

// setValue descends one segment and returns the (possibly re-allocated)
// container so slice appends propagate back up to the parent.
func setValue(node any, path string, segments []string, value any) (any, error) {
	seg := segments[0]
	last := len(segments) == 1

	switch container := node.(type) {
	case map[string]any:
		if last {
			container[seg] = value
			return container, nil
		}
		child, ok := container[seg]
		if !ok {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
				fmt.Sprintf("Field path %q: no field %q", path, seg), nil)
		}
		newChild, err := setValue(child, path, segments[1:], value)
		if err != nil {
			return nil, err
		}
		container[seg] = newChild
		return container, nil

	case []any:
		idx, convErr := strconv.Atoi(seg)
		if convErr != nil {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
				fmt.Sprintf("Field path %q: segment %q is not an index", path, seg), nil)
		}
		if last {
			if idx == len(container) {
				return append(container, value), nil
			}
			if idx < 0 || idx > len(container) {
				return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
					fmt.Sprintf("Field path %q: index %d out of range (len %d)", path, idx, len(container)), nil)
			}
			container[idx] = value
			return container, nil
		}
		if idx < 0 || idx >= len(container) {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
				fmt.Sprintf("Field path %q: index %d out of range (len %d)", path, idx, len(container)), nil)
		}
		newChild, err := setValue(container[idx], path, segments[1:], value)
		if err != nil {
			return nil, err
		}
		container[idx] = newChild
		return container, nil

	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFieldPath,
			fmt.Sprintf("Field path %q: cannot descend into %T at %q", path, node, seg), nil)
	}
}

// ApplyFieldPatch sets a single field in a typed resume document and returns
// the patched copy. The input document is left untouched.
func ApplyFieldPatch(data types.ResumeData, path string, value any) (types.ResumeData, error) {
	doc, err := ToMap(data)
	if err != nil {
		return types.ResumeData{}, err
	}
	if err := SetPath(doc, path, value); err != nil {
		return types.ResumeData{}, err
	}
	return FromMap(doc)
}
