package formatters

import (
	"encoding/json"
	"fmt"

	"resumelift/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "EnhancementResult", &EnhanceTextFormatter{})
	registry.RegisterFormatter("markdown", "EnhancementResult", &EnhanceMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeData", &DocumentTextFormatter{})
	registry.RegisterFormatter("markdown", "ResumeData", &DocumentMarkdownFormatter{})
	registry.RegisterFormatter("text", "ConnectionTestResult", &ConnectionTestTextFormatter{})
	registry.RegisterFormatter("markdown", "ConnectionTestResult", &ConnectionTestMarkdownFormatter{})
	registry.RegisterFormatter("text", "ModelList", &ModelListTextFormatter{})
	registry.RegisterFormatter("markdown", "ModelList", &ModelListMarkdownFormatter{})
	registry.RegisterFormatter("text", "UsageStats", &UsageStatsTextFormatter{})
	registry.RegisterFormatter("markdown", "UsageStats", &UsageStatsMarkdownFormatter{})
	registry.RegisterFormatter("text", "CostMonitoring", &CostMonitoringTextFormatter{})
	registry.RegisterFormatter("markdown", "CostMonitoring", &CostMonitoringMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = indirect(data)
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

// indirect unwraps the pointer forms the orchestrator and tracker return so
// the typed formatters only deal with values.
func indirect(data any) any {
	switch v := data.(type) {
	case *types.EnhancementResult:
		if v != nil {
			return *v
		}
	case *types.ResumeData:
		if v != nil {
			return *v
		}
	case *types.ConnectionTestResult:
		if v != nil {
			return *v
		}
	case *types.ModelList:
		if v != nil {
			return *v
		}
	case *types.UsageStats:
		if v != nil {
			return *v
		}
	case *types.CostMonitoring:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.EnhancementResult:
		return "EnhancementResult"
	case types.ResumeData:
		return "ResumeData"
	case types.ConnectionTestResult:
		return "ConnectionTestResult"
	case types.ModelList:
		return "ModelList"
	case types.UsageStats:
		return "UsageStats"
	case types.CostMonitoring:
		return "CostMonitoring"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
