package document

import (
	"testing"

	"resumelift/internal/types"
)

func TestValidateBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name: "FullDocument",
			input: `{
				"personalInfo": {"fullName": "Ada Lovelace", "email": "ada@example.com"},
				"skills": [{"category": "Languages", "items": ["Go"]}],
				"experience": [{"company": "Analytical Engines Ltd", "position": "Lead"}],
				"education": [{"institution": "University of London"}],
				"projects": [{"name": "Notes"}]
			}`,
		},
		{
			name:  "PartialDocument",
			input: `{"personalInfo": {"fullName": "Ada Lovelace"}}`,
		},
		{
			name:  "UnknownTopLevelKeyTolerated",
			input: `{"personalInfo": {}, "exportedBy": "some-tool"}`,
		},
		{
			name:    "WrongSectionType",
			input:   `{"skills": "Go, Python"}`,
			wantErr: true,
		},
		{
			name:    "WrongItemShape",
			input:   `{"experience": [{"company": 42}]}`,
			wantErr: true,
		},
		{
			name:    "UnknownSectionField",
			input:   `{"personalInfo": {"nickname": "Ada"}}`,
			wantErr: true,
		},
		{
			name:    "NotJSON",
			input:   `fullName: Ada`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBytes([]byte(tt.input))
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateTypedDocument(t *testing.T) {
	if err := Validate(sampleResume()); err != nil {
		t.Fatalf("typed document should validate: %v", err)
	}
}

func TestValidateEmptyTypedDocument(t *testing.T) {
	// An empty document marshals its sections as null and must still validate.
	if err := Validate(types.ResumeData{}); err != nil {
		t.Fatalf("empty document should validate: %v", err)
	}
}
