package formatters

import (
	"fmt"
	"strings"

	"resumelift/internal/types"
)

// EnhanceTextFormatter handles text formatting for enhancement results
type EnhanceTextFormatter struct{}

func (etf *EnhanceTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhancementResult)
	if !ok {
		return "", fmt.Errorf("expected EnhancementResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ENHANCED RESUME ===\n\n")
	writeDocumentText(&output, result.EnhancedData)

	if len(result.Suggestions) > 0 {
		output.WriteString(fmt.Sprintf("=== SUGGESTIONS (%d) ===\n\n", len(result.Suggestions)))
		for i, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, s.Type, suggestionTarget(s)))
			if s.OriginalValue != "" {
				output.WriteString("   Original: ")
				output.WriteString(s.OriginalValue)
				output.WriteString("\n")
			}
			if s.SuggestedValue != "" {
				output.WriteString("   Suggested: ")
				output.WriteString(s.SuggestedValue)
				output.WriteString("\n")
			}
			if s.Reasoning != "" {
				output.WriteString("   Reasoning: ")
				output.WriteString(s.Reasoning)
				output.WriteString("\n")
			}
			output.WriteString(fmt.Sprintf("   Confidence: %.2f\n\n", s.Confidence))
		}
	} else {
		output.WriteString("No suggestions produced.\n\n")
	}

	output.WriteString("=== RUN DETAILS ===\n")
	output.WriteString(fmt.Sprintf("Provider: %s\n", result.Provider))
	output.WriteString(fmt.Sprintf("Model: %s\n", result.Model))
	output.WriteString(fmt.Sprintf("Confidence: %.2f\n", result.Confidence))
	output.WriteString(fmt.Sprintf("Processing Time: %dms\n", result.ProcessingTimeMS))

	return output.String(), nil
}

func (etf *EnhanceTextFormatter) SupportedType() string {
	return "EnhancementResult"
}

// EnhanceMarkdownFormatter handles markdown formatting for enhancement results
type EnhanceMarkdownFormatter struct{}

func (emf *EnhanceMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.EnhancementResult)
	if !ok {
		return "", fmt.Errorf("expected EnhancementResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Enhanced Resume\n\n")
	writeDocumentMarkdown(&output, result.EnhancedData)

	if len(result.Suggestions) > 0 {
		output.WriteString(fmt.Sprintf("## Suggestions (%d)\n\n", len(result.Suggestions)))
		for i, s := range result.Suggestions {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, suggestionTarget(s)))
			writeFieldMarkdown(&output, "Type", string(s.Type))
			if s.OriginalValue != "" {
				output.WriteString("**Original:** ")
				output.WriteString(s.OriginalValue)
				output.WriteString("\n")
			}
			if s.SuggestedValue != "" {
				output.WriteString("**Suggested:** ")
				output.WriteString(s.SuggestedValue)
				output.WriteString("\n")
			}
			if s.Reasoning != "" {
				output.WriteString("**Reasoning:** ")
				output.WriteString(s.Reasoning)
				output.WriteString("\n")
			}
			output.WriteString(fmt.Sprintf("**Confidence:** %.2f\n\n", s.Confidence))
		}
	} else {
		output.WriteString("## No Suggestions\n\nThe resume needed no field-level changes at this enhancement level.\n\n")
	}

	output.WriteString("## Run Details\n\n")
	writeFieldMarkdown(&output, "Provider", result.Provider)
	writeFieldMarkdown(&output, "Model", result.Model)
	output.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", result.Confidence))
	output.WriteString(fmt.Sprintf("**Processing Time:** %dms\n", result.ProcessingTimeMS))

	return output.String(), nil
}

func (emf *EnhanceMarkdownFormatter) SupportedType() string {
	return "EnhancementResult"
}

// suggestionTarget renders the section-qualified field path of a suggestion.
func suggestionTarget(s types.Suggestion) string {
	if s.Section != "" && s.Field != "" {
		return s.Section + "." + s.Field
	}
	if s.Section != "" {
		return s.Section
	}
	return s.Field
}
