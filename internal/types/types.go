package types

import "time"

// Mode selects which prompt template and parsing rules an orchestration run uses.
type Mode string

const (
	// ModeEnhance rewrites and improves an existing structured resume.
	ModeEnhance Mode = "enhance"
	// ModeReparse re-derives structured data from raw source text.
	ModeReparse Mode = "reparse"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeEnhance || m == ModeReparse
}

// EnhancementLevel controls how aggressively the enhance mode rewrites content.
type EnhancementLevel string

const (
	LevelLight         EnhancementLevel = "light"
	LevelModerate      EnhancementLevel = "moderate"
	LevelComprehensive EnhancementLevel = "comprehensive"
)

// Valid reports whether the level is one of the known values.
func (l EnhancementLevel) Valid() bool {
	return l == LevelLight || l == LevelModerate || l == LevelComprehensive
}

// PersonalInfo holds the contact and summary block of a resume.
type PersonalInfo struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// SkillGroup is one named cluster of related skills
type SkillGroup struct {
	ID       string   `json:"id,omitempty"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Experience is a single work history entry.
type Experience struct {
	ID          string   `json:"id,omitempty"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Education is a single education history entry.
type Education struct {
	ID          string   `json:"id,omitempty"`
	Institution string   `json:"institution"`
	Degree      string   `json:"degree,omitempty"`
	Field       string   `json:"field,omitempty"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	GPA         string   `json:"gpa,omitempty"`
	Honors      []string `json:"honors,omitempty"`
}

// Project is a single portfolio project entry.
type Project struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Highlights   []string `json:"highlights,omitempty"`
}

// ResumeData is the canonical structured document that enhancement operates on.
// The five top-level sections are the shape contract for both enhance and
// reparse modes.
type ResumeData struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Skills       []SkillGroup `json:"skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
	Projects     []Project    `json:"projects"`
}

// SectionNames lists the top-level sections of a ResumeData document in
// declaration order.
func SectionNames() []string {
	return []string{"personalInfo", "skills", "experience", "education", "projects"}
}

// EnhancementRequest carries everything one orchestration run needs.
// Immutable once built; constructed fresh per session.
type EnhancementRequest struct {
	OriginalText     string           `json:"originalText,omitempty"`
	ParsedData       ResumeData       `json:"parsedData"`
	JobDescription   string           `json:"jobDescription,omitempty"`
	UserInstructions string           `json:"userInstructions,omitempty"`
	FocusAreas       []string         `json:"focusAreas,omitempty"`
	Level            EnhancementLevel `json:"enhancementLevel"`
	Mode             Mode             `json:"mode"`
}

// SuggestionType categorizes a proposed edit.
type SuggestionType string

const (
	SuggestionImprovement SuggestionType = "improvement"
	SuggestionRewrite     SuggestionType = "rewrite"
	SuggestionAddition    SuggestionType = "addition"
)

// Suggestion is one proposed field-level edit produced by a provider.
// IDs are stable for the duration of a review session so repeated
// accept/reject calls are idempotent.
type Suggestion struct {
	ID             string         `json:"id"`
	Type           SuggestionType `json:"type"`
	Section        string         `json:"section,omitempty"`
	Field          string         `json:"field"`
	OriginalValue  string         `json:"originalValue,omitempty"`
	SuggestedValue string         `json:"suggestedValue,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
	Confidence     float64        `json:"confidence"`
	Accepted       *bool          `json:"accepted,omitempty"`
}

// EnhancementResult is the outcome of one successful orchestration call.
// OriginalData and EnhancedData are always structurally valid documents; the
// parser normalizes or degrades rather than emitting a malformed document.
type EnhancementResult struct {
	OriginalData     ResumeData   `json:"originalData"`
	EnhancedData     ResumeData   `json:"enhancedData"`
	Suggestions      []Suggestion `json:"suggestions"`
	Confidence       float64      `json:"confidence"`
	Provider         string       `json:"provider"`
	Model            string       `json:"model"`
	ProcessingTimeMS int64        `json:"processingTimeMs"`
	Timestamp        time.Time    `json:"timestamp"`
	Success          bool         `json:"success"`
}

// ConnectionTestResult reports the outcome of a credential check against a
// provider.
type ConnectionTestResult struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	OK        bool      `json:"ok"`
	LatencyMS int64     `json:"latencyMs"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ModelInfo describes one model offered by a provider, annotated from the
// static per-provider catalog.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Family      string `json:"family,omitempty"`
	Recommended bool   `json:"recommended,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
}

// ModelList is the result of a models-listing call for one provider.
type ModelList struct {
	Provider string      `json:"provider"`
	Models   []ModelInfo `json:"models"`
}
