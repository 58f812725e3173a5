package document

import (
	"testing"

	"resumelift/internal/types"
)

func sampleResume() types.ResumeData {
	return types.ResumeData{
		PersonalInfo: types.PersonalInfo{
			FullName: "Ada Lovelace",
			Email:    "ada@example.com",
			Summary:  "Engineer and analyst",
		},
		Skills: []types.SkillGroup{
			{ID: "skills-1", Category: "Languages", Items: []string{"Go", "Python"}},
		},
		Experience: []types.Experience{
			{
				ID:          "exp-1",
				Company:     "Analytical Engines Ltd",
				Position:    "Lead Engineer",
				Description: "Built calculation pipelines",
				Highlights:  []string{"Shipped v1"},
			},
		},
		Education: []types.Education{
			{ID: "edu-1", Institution: "University of London"},
		},
		Projects: []types.Project{
			{ID: "proj-1", Name: "Notes", Technologies: []string{"Go"}},
		},
	}
}

func TestGetPath(t *testing.T) {
	doc, err := ToMap(sampleResume())
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr bool
	}{
		{name: "PersonalInfoField", path: "personalInfo.summary", want: "Engineer and analyst"},
		{name: "IndexedSectionField", path: "experience.0.position", want: "Lead Engineer"},
		{name: "NestedStringSlice", path: "skills.0.items.1", want: "Python"},
		{name: "MissingKey", path: "personalInfo.nickname", wantErr: true},
		{name: "NonNumericIndex", path: "experience.first.position", wantErr: true},
		{name: "IndexOutOfRange", path: "experience.5.position", wantErr: true},
		{name: "DescendIntoScalar", path: "personalInfo.summary.0", wantErr: true},
		{name: "EmptyPath", path: "", wantErr: true},
		{name: "EmptySegment", path: "experience..position", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetPath(doc, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("GetPath(%q) expected error, got %v", tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetPath(%q) failed: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("GetPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSetPath(t *testing.T) {
	t.Run("ReplaceField", func(t *testing.T) {
		doc, err := ToMap(sampleResume())
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}

		if err := SetPath(doc, "experience.0.description", "Led calculation pipeline delivery"); err != nil {
			t.Fatalf("SetPath failed: %v", err)
		}

		got, err := GetPath(doc, "experience.0.description")
		if err != nil {
			t.Fatalf("GetPath after set failed: %v", err)
		}
		if got != "Led calculation pipeline delivery" {
			t.Errorf("unexpected value after set: %v", got)
		}
	})

	t.Run("ReplaceSliceElement", func(t *testing.T) {
		doc, err := ToMap(sampleResume())
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}

		if err := SetPath(doc, "skills.0.items.0", "Golang"); err != nil {
			t.Fatalf("SetPath failed: %v", err)
		}

		got, _ := GetPath(doc, "skills.0.items.0")
		if got != "Golang" {
			t.Errorf("unexpected value after set: %v", got)
		}
	})

	t.Run("AppendAtLength", func(t *testing.T) {
		doc, err := ToMap(sampleResume())
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}

		// skills.0.items has two entries; index 2 appends.
		if err := SetPath(doc, "skills.0.items.2", "SQL"); err != nil {
			t.Fatalf("SetPath append failed: %v", err)
		}

		got, err := GetPath(doc, "skills.0.items.2")
		if err != nil {
			t.Fatalf("GetPath after append failed: %v", err)
		}
		if got != "SQL" {
			t.Errorf("unexpected appended value: %v", got)
		}
	})

	t.Run("AppendBeyondLengthFails", func(t *testing.T) {
		doc, err := ToMap(sampleResume())
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}

		if err := SetPath(doc, "skills.0.items.5", "Rust"); err == nil {
			t.Fatal("expected out-of-range error, got nil")
		}
	})

	t.Run("MissingIntermediateKeyFails", func(t *testing.T) {
		doc, err := ToMap(sampleResume())
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}

		if err := SetPath(doc, "certifications.0.name", "none"); err == nil {
			t.Fatal("expected missing-field error, got nil")
		}
	})
}

func TestApplyFieldPatch(t *testing.T) {
	original := sampleResume()

	patched, err := ApplyFieldPatch(original, "personalInfo.summary", "Pioneering computing engineer")
	if err != nil {
		t.Fatalf("ApplyFieldPatch failed: %v", err)
	}

	if patched.PersonalInfo.Summary != "Pioneering computing engineer" {
		t.Errorf("patched summary = %q", patched.PersonalInfo.Summary)
	}
	if original.PersonalInfo.Summary != "Engineer and analyst" {
		t.Errorf("original document was mutated: %q", original.PersonalInfo.Summary)
	}

	patched, err = ApplyFieldPatch(original, "experience.0.highlights.1", "Automated regression suite")
	if err != nil {
		t.Fatalf("ApplyFieldPatch append failed: %v", err)
	}
	if len(patched.Experience[0].Highlights) != 2 {
		t.Fatalf("expected 2 highlights, got %d", len(patched.Experience[0].Highlights))
	}
	if len(original.Experience[0].Highlights) != 1 {
		t.Errorf("original highlights were mutated: %v", original.Experience[0].Highlights)
	}
}

func TestClone(t *testing.T) {
	original := sampleResume()

	clone, err := Clone(original)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	clone.Skills[0].Items[0] = "changed"
	clone.Experience[0].Highlights[0] = "changed"

	if original.Skills[0].Items[0] != "Go" {
		t.Error("clone shares skill items with the original")
	}
	if original.Experience[0].Highlights[0] != "Shipped v1" {
		t.Error("clone shares highlights with the original")
	}
}
