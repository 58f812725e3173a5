package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// SystemPrompts contains the system-level instructions for each mode
type SystemPrompts struct {
	Enhance string
	Reparse string
}

// UserPrompts contains the user-level prompt templates with placeholders for
// dynamic content
type UserPrompts struct {
	Enhance string
	Reparse string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Enhance: `You are an expert resume writer with a strict commitment to honesty and accuracy. You must follow these rules without exception:

1. NEVER fabricate skills, employers, dates, numbers, or achievements. Every statement must be traceable to the provided resume.
2. Only modify content that already exists; do not add new jobs, degrees, or projects.
3. Improve clarity, impact, and ATS (Applicant Tracking System) compatibility.
4. Use strong action verbs and quantify achievements only with figures already present in the source.
5. Respond with the exact JSON envelope requested and nothing else.`,

	Reparse: `You are a resume parsing engine. You convert raw resume text into structured JSON. You must follow these rules without exception:

- NEVER fabricate information. Only extract what the text states.
- Leave any field you cannot determine as an empty string rather than guessing.
- Give every skills, experience, education, and projects entry an "id" of the form <section>-<timestamp>-<index> using the timestamp provided in the request, for example "experience-1700000000000-0".
- Respond with ONLY the raw JSON document. No prose, no markdown, no code fences.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Enhance: `Enhance the resume below.

**Resume data (JSON):**
-----
%s
-----

**Additional context:**
%s

Respond with exactly this JSON envelope:
{
  "originalData": <the resume data you were given, unchanged>,
  "enhancedData": <the improved resume data, same schema>,
  "suggestions": [
    {
      "id": "<unique id>",
      "type": "improvement" | "rewrite" | "addition",
      "section": "<personalInfo|skills|experience|education|projects>",
      "field": "<path within the section, e.g. 0.description>",
      "originalValue": "<text before>",
      "suggestedValue": "<text after>",
      "reasoning": "<why this helps>",
      "confidence": <0.0-1.0>
    }
  ],
  "confidence": <0.0-1.0 overall confidence>
}`,

	Reparse: `Parse the raw resume text below into the document schema.

**Raw resume text:**
-----
%s
-----

**Existing best-effort parse (for context only, correct its mistakes):**
-----
%s
-----

Use the literal timestamp %d when forming item IDs.

Populate exactly this schema:
{
  "personalInfo": {"fullName": "", "email": "", "phone": "", "location": "", "website": "", "linkedin": "", "summary": ""},
  "skills": [{"id": "", "category": "", "items": [""]}],
  "experience": [{"id": "", "company": "", "position": "", "location": "", "startDate": "", "endDate": "", "current": false, "description": "", "highlights": [""]}],
  "education": [{"id": "", "institution": "", "degree": "", "field": "", "location": "", "startDate": "", "endDate": "", "gpa": "", "honors": [""]}],
  "projects": [{"id": "", "name": "", "description": "", "url": "", "technologies": [""], "highlights": [""]}]
}`,
}

// levelInstructions maps each enhancement level to the instruction appended
// to the enhance system prompt.
var levelInstructions = map[types.EnhancementLevel]string{
	types.LevelLight:         "Enhancement level: light. Polish wording, grammar, and formatting only. Keep every sentence's substance unchanged.",
	types.LevelModerate:      "Enhancement level: moderate. Rewrite descriptions and highlights for clarity and impact while preserving their meaning.",
	types.LevelComprehensive: "Enhancement level: comprehensive. Restructure and rewrite content aggressively for maximum impact, reordering and merging where it helps, while still inventing nothing.",
}

// LevelInstruction returns the system prompt addition for a level,
// defaulting to moderate for unknown values.
func LevelInstruction(level types.EnhancementLevel) string {
	if s, ok := levelInstructions[level]; ok {
		return s
	}
	return levelInstructions[types.LevelModerate]
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `json:"systemPrompts"`
	UserPrompts   UserPrompts   `json:"userPrompts"`
}

// GetDefaultPromptConfig returns the default prompt configuration
func GetDefaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompts: DefaultSystemPrompts,
		UserPrompts:   DefaultUserPrompts,
	}
}

// resolvePrompt prefers a configured prompt over the built-in default.
func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}

// BuildPrompts renders the system and user prompt pair for a request. The
// two modes use mutually exclusive templates; now feeds the deterministic
// item IDs reparse asks the model to emit.
func BuildPrompts(cfg PromptConfig, req types.EnhancementRequest, now time.Time) (string, string, error) {
	switch req.Mode {
	case types.ModeEnhance:
		return buildEnhancePrompts(cfg, req)
	case types.ModeReparse:
		return buildReparsePrompts(cfg, req, now)
	default:
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown enhancement mode: %q", req.Mode), nil)
	}
}

func buildEnhancePrompts(cfg PromptConfig, req types.EnhancementRequest) (string, string, error) {
	data, err := json.MarshalIndent(req.ParsedData, "", "  ")
	if err != nil {
		return "", "", errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Resume data failed to serialize for prompting", err)
	}

	systemPrompt := resolvePrompt(cfg.SystemPrompts.Enhance, DefaultSystemPrompts.Enhance) +
		"\n\n" + LevelInstruction(req.Level)

	userTemplate := resolvePrompt(cfg.UserPrompts.Enhance, DefaultUserPrompts.Enhance)
	userPrompt := fmt.Sprintf(userTemplate, string(data), enhanceContextBlock(req))
	return systemPrompt, userPrompt, nil
}

// enhanceContextBlock assembles the optional request context into one block.
func enhanceContextBlock(req types.EnhancementRequest) string {
	var parts []string
	if strings.TrimSpace(req.JobDescription) != "" {
		parts = append(parts, "Target job description:\n"+req.JobDescription)
	}
	if strings.TrimSpace(req.UserInstructions) != "" {
		parts = append(parts, "User instructions:\n"+req.UserInstructions)
	}
	if len(req.FocusAreas) > 0 {
		parts = append(parts, "Focus areas: "+strings.Join(req.FocusAreas, ", "))
	}
	if len(parts) == 0 {
		return "None."
	}
	return strings.Join(parts, "\n\n")
}

func buildReparsePrompts(cfg PromptConfig, req types.EnhancementRequest, now time.Time) (string, string, error) {
	parsed, err := json.MarshalIndent(req.ParsedData, "", "  ")
	if err != nil {
		return "", "", errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"Resume data failed to serialize for prompting", err)
	}

	systemPrompt := resolvePrompt(cfg.SystemPrompts.Reparse, DefaultSystemPrompts.Reparse)
	userTemplate := resolvePrompt(cfg.UserPrompts.Reparse, DefaultUserPrompts.Reparse)
	userPrompt := fmt.Sprintf(userTemplate, req.OriginalText, string(parsed), now.UnixMilli())
	return systemPrompt, userPrompt, nil
}

// Connection test prompts: fixed, trivially cheap, shared by every provider.
const (
	connectionTestSystemPrompt = "You are a connectivity probe. Follow the instruction exactly."
	connectionTestUserPrompt   = "Reply with the single word OK."
)
