package document

import (
	"bytes"
	"encoding/json"
	"sync"

	"resumelift/internal/errors"
	"resumelift/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildResumeJSONSchema returns the JSON Schema for a structured resume
// document. Every section is optional so partial documents validate, but any
// section that is present must have the right shape. Unknown top-level keys
// are tolerated because imported files often carry tool metadata; section
// items are strict.
func BuildResumeJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	strArray := map[string]any{
		"type":  "array",
		"items": str,
	}

	personalInfo := map[string]any{
		"type": []string{"object", "null"},
		"properties": map[string]any{
			"fullName": str,
			"email":    str,
			"phone":    str,
			"location": str,
			"website":  str,
			"linkedin": str,
			"summary":  str,
		},
		"additionalProperties": false,
	}

	skillGroup := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":       str,
			"category": str,
			"items":    strArray,
		},
		"additionalProperties": false,
	}

	experience := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          str,
			"company":     str,
			"position":    str,
			"location":    str,
			"startDate":   str,
			"endDate":     str,
			"current":     map[string]any{"type": "boolean"},
			"description": str,
			"highlights":  strArray,
		},
		"additionalProperties": false,
	}

	education := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":          str,
			"institution": str,
			"degree":      str,
			"field":       str,
			"location":    str,
			"startDate":   str,
			"endDate":     str,
			"gpa":         str,
			"honors":      strArray,
		},
		"additionalProperties": false,
	}

	project := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":           str,
			"name":         str,
			"description":  str,
			"url":          str,
			"technologies": strArray,
			"highlights":   strArray,
		},
		"additionalProperties": false,
	}

	// Sections marshal as null when empty, so every section type admits null.
	sectionOf := func(item map[string]any) map[string]any {
		return map[string]any{
			"type":  []string{"array", "null"},
			"items": item,
		}
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"personalInfo": personalInfo,
			"skills":       sectionOf(skillGroup),
			"experience":   sectionOf(experience),
			"education":    sectionOf(education),
			"projects":     sectionOf(project),
		},
		"additionalProperties": true,
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaCompile  error
)

// compiled builds the schema exactly once; the document shape never changes
// at runtime.
func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildResumeJSONSchema())
		if err != nil {
			schemaCompile = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("resume.schema.json", bytes.NewReader(b)); err != nil {
			schemaCompile = err
			return
		}
		compiledSchema, schemaCompile = compiler.Compile("resume.schema.json")
	})
	return compiledSchema, schemaCompile
}

// ValidateBytes checks raw JSON against the resume document schema.
func ValidateBytes(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeDocumentInvalid,
			"Resume schema failed to compile", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"Resume document is not valid JSON", err)
	}

	if err := schema.Validate(v); err != nil {
		return errors.NewValidationError(errors.ErrCodeDocumentInvalid,
			"Resume document failed schema validation", err)
	}
	return nil
}

// Validate checks typed resume data against the document schema.
func Validate(data types.ResumeData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeDocumentInvalid,
			"Resume document failed to serialize", err)
	}
	return ValidateBytes(b)
}
