package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resumelift/internal/errors"
	"resumelift/internal/types"
)

// defaultEnhanceConfidence is used when the model returned a valid envelope
// but omitted the overall confidence.
const defaultEnhanceConfidence = 0.5

// reparseConfidence is the fixed confidence of a structurally valid reparse;
// the reparse envelope carries no confidence of its own.
const reparseConfidence = 0.9

// degradedConfidence marks results where the model text never parsed.
const degradedConfidence = 0.1

// ParseResponse turns raw completion text into a partially stamped result.
// It never fails: anything unparseable degrades to a low-confidence result
// that still carries a structurally valid document, so the caller always has
// something reviewable. Provider, model, timing, and timestamp are stamped
// by the orchestrator.
func ParseResponse(mode types.Mode, raw string, original types.ResumeData, now time.Time, logger *errors.Logger) *types.EnhancementResult {
	span, ok := extractJSON(raw)
	if !ok {
		return degradedResult(original, "no JSON object found in the response")
	}

	switch mode {
	case types.ModeReparse:
		return parseReparse(span, original, now, logger)
	default:
		return parseEnhance(span, original, logger)
	}
}

// parseEnhance decodes the enhance envelope. A missing enhancedData or
// suggestions field degrades gracefully to the original document and an
// empty list; partial success beats hard failure here.
func parseEnhance(span string, original types.ResumeData, logger *errors.Logger) *types.EnhancementResult {
	var envelope struct {
		EnhancedData *types.ResumeData  `json:"enhancedData"`
		Suggestions  []types.Suggestion `json:"suggestions"`
		Confidence   *float64           `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(span), &envelope); err != nil {
		if logger != nil {
			logger.Warn("Enhance envelope did not decode, degrading", "error", err.Error())
		}
		return degradedResult(original, "the response envelope did not decode: "+err.Error())
	}

	enhanced := original
	if envelope.EnhancedData != nil {
		enhanced = *envelope.EnhancedData
	}

	confidence := defaultEnhanceConfidence
	if envelope.Confidence != nil {
		confidence = clamp01(*envelope.Confidence)
	}

	return &types.EnhancementResult{
		OriginalData: original,
		EnhancedData: enhanced,
		Suggestions:  normalizeSuggestions(envelope.Suggestions),
		Confidence:   confidence,
		Success:      true,
	}
}

// parseReparse decodes a raw document. At least one of the five top-level
// sections must be present in the parsed object, else the text is treated
// as a parse failure.
func parseReparse(span string, original types.ResumeData, now time.Time, logger *errors.Logger) *types.EnhancementResult {
	var generic map[string]any
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		if logger != nil {
			logger.Warn("Reparse document did not decode, degrading", "error", err.Error())
		}
		return degradedResult(original, "the response document did not decode: "+err.Error())
	}

	found := false
	for _, section := range types.SectionNames() {
		if _, ok := generic[section]; ok {
			found = true
			break
		}
	}
	if !found {
		return degradedResult(original, "the response document has none of the resume sections")
	}

	var reparsed types.ResumeData
	if err := json.Unmarshal([]byte(span), &reparsed); err != nil {
		if logger != nil {
			logger.Warn("Reparse document has incompatible types, degrading", "error", err.Error())
		}
		return degradedResult(original, "the response document has incompatible field types: "+err.Error())
	}
	ensureItemIDs(&reparsed, now.UnixMilli())

	return &types.EnhancementResult{
		OriginalData: original,
		EnhancedData: reparsed,
		Suggestions:  []types.Suggestion{},
		Confidence:   reparseConfidence,
		Success:      true,
	}
}

// degradedResult is the deterministic fallback for any parse failure: the
// document survives untouched and exactly one synthetic suggestion explains
// what went wrong.
func degradedResult(original types.ResumeData, reason string) *types.EnhancementResult {
	return &types.EnhancementResult{
		OriginalData: original,
		EnhancedData: original,
		Suggestions: []types.Suggestion{
			{
				ID:         "parse-failure",
				Type:       types.SuggestionImprovement,
				Field:      "parsing",
				Reasoning:  "The AI response could not be parsed: " + reason,
				Confidence: degradedConfidence,
			},
		},
		Confidence: degradedConfidence,
		Success:    true,
	}
}

// normalizeSuggestions guarantees non-nil output, unique-enough IDs, a known
// type, and clamped confidences.
func normalizeSuggestions(suggestions []types.Suggestion) []types.Suggestion {
	if suggestions == nil {
		return []types.Suggestion{}
	}
	for i := range suggestions {
		if strings.TrimSpace(suggestions[i].ID) == "" {
			suggestions[i].ID = fmt.Sprintf("suggestion-%d", i+1)
		}
		switch suggestions[i].Type {
		case types.SuggestionImprovement, types.SuggestionRewrite, types.SuggestionAddition:
		default:
			suggestions[i].Type = types.SuggestionImprovement
		}
		suggestions[i].Confidence = clamp01(suggestions[i].Confidence)
	}
	return suggestions
}

// ensureItemIDs fills empty entry IDs with deterministic
// <section>-<timestamp>-<index> values so review actions stay stable even
// when the model ignored the ID instruction.
func ensureItemIDs(data *types.ResumeData, ts int64) {
	for i := range data.Skills {
		if data.Skills[i].ID == "" {
			data.Skills[i].ID = fmt.Sprintf("skills-%d-%d", ts, i)
		}
	}
	for i := range data.Experience {
		if data.Experience[i].ID == "" {
			data.Experience[i].ID = fmt.Sprintf("experience-%d-%d", ts, i)
		}
	}
	for i := range data.Education {
		if data.Education[i].ID == "" {
			data.Education[i].ID = fmt.Sprintf("education-%d-%d", ts, i)
		}
	}
	for i := range data.Projects {
		if data.Projects[i].ID == "" {
			data.Projects[i].ID = fmt.Sprintf("projects-%d-%d", ts, i)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// extractJSON returns the first balanced {...} span in the text, stripping
// markdown code fences first. Vendors wrap JSON in prose or fences often
// enough that both passes earn their keep. Braces inside JSON strings do not
// count toward the balance.
func extractJSON(text string) (string, bool) {
	text = stripCodeFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stripCodeFences removes a ```json ... ``` or generic ``` ... ``` wrapper.
// Models emit them even when told not to.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Drop a language identifier on the opening fence line.
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}
