package formatters

import (
	"fmt"
	"strings"
	"time"

	"resumelift/internal/types"
)

// ConnectionTestTextFormatter handles text formatting for connection test results
type ConnectionTestTextFormatter struct{}

func (cttf *ConnectionTestTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ConnectionTestResult)
	if !ok {
		return "", fmt.Errorf("expected ConnectionTestResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CONNECTION TEST ===\n\n")
	output.WriteString(fmt.Sprintf("Provider: %s\n", result.Provider))
	output.WriteString(fmt.Sprintf("Model: %s\n", result.Model))
	output.WriteString(fmt.Sprintf("Status: %s\n", testStatus(result.OK)))
	output.WriteString(fmt.Sprintf("Latency: %dms\n", result.LatencyMS))
	if result.Message != "" {
		output.WriteString(fmt.Sprintf("Message: %s\n", result.Message))
	}
	if !result.Timestamp.IsZero() {
		output.WriteString(fmt.Sprintf("Tested At: %s\n", result.Timestamp.Format(time.RFC3339)))
	}

	return output.String(), nil
}

func (cttf *ConnectionTestTextFormatter) SupportedType() string {
	return "ConnectionTestResult"
}

// ConnectionTestMarkdownFormatter handles markdown formatting for connection test results
type ConnectionTestMarkdownFormatter struct{}

func (ctmf *ConnectionTestMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ConnectionTestResult)
	if !ok {
		return "", fmt.Errorf("expected ConnectionTestResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Connection Test\n\n")
	writeFieldMarkdown(&output, "Provider", result.Provider)
	writeFieldMarkdown(&output, "Model", result.Model)
	writeFieldMarkdown(&output, "Status", testStatus(result.OK))
	output.WriteString(fmt.Sprintf("**Latency:** %dms\n", result.LatencyMS))
	writeFieldMarkdown(&output, "Message", result.Message)
	if !result.Timestamp.IsZero() {
		writeFieldMarkdown(&output, "Tested At", result.Timestamp.Format(time.RFC3339))
	}

	return output.String(), nil
}

func (ctmf *ConnectionTestMarkdownFormatter) SupportedType() string {
	return "ConnectionTestResult"
}

func testStatus(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

// ModelListTextFormatter handles text formatting for model listings
type ModelListTextFormatter struct{}

func (mltf *ModelListTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ModelList)
	if !ok {
		return "", fmt.Errorf("expected ModelList, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== AVAILABLE MODELS ===\n\n")
	output.WriteString(fmt.Sprintf("Provider: %s\n", result.Provider))
	output.WriteString(fmt.Sprintf("Models: %d\n\n", len(result.Models)))

	for i, model := range result.Models {
		output.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, model.ID, modelAnnotations(model)))
	}

	return output.String(), nil
}

func (mltf *ModelListTextFormatter) SupportedType() string {
	return "ModelList"
}

// ModelListMarkdownFormatter handles markdown formatting for model listings
type ModelListMarkdownFormatter struct{}

func (mlmf *ModelListMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ModelList)
	if !ok {
		return "", fmt.Errorf("expected ModelList, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Available Models\n\n")
	writeFieldMarkdown(&output, "Provider", result.Provider)
	output.WriteString("\n")

	for _, model := range result.Models {
		output.WriteString(fmt.Sprintf("- **%s**%s\n", model.ID, modelAnnotations(model)))
	}

	return output.String(), nil
}

func (mlmf *ModelListMarkdownFormatter) SupportedType() string {
	return "ModelList"
}

// modelAnnotations renders the display name and catalog flags of a model.
func modelAnnotations(model types.ModelInfo) string {
	var annotations strings.Builder
	if model.DisplayName != "" && model.DisplayName != model.ID {
		annotations.WriteString(fmt.Sprintf(" (%s)", model.DisplayName))
	}
	if model.Recommended {
		annotations.WriteString(" [recommended]")
	}
	if model.Deprecated {
		annotations.WriteString(" [deprecated]")
	}
	return annotations.String()
}
