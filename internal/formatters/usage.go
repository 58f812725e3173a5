package formatters

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"resumelift/internal/types"
)

// UsageStatsTextFormatter handles text formatting for usage statistics
type UsageStatsTextFormatter struct{}

func (ustf *UsageStatsTextFormatter) Format(data any) (string, error) {
	stats, ok := data.(types.UsageStats)
	if !ok {
		return "", fmt.Errorf("expected UsageStats, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("=== USAGE STATISTICS (last %d days) ===\n\n", stats.WindowDays))
	output.WriteString(fmt.Sprintf("Events: %d\n", stats.TotalEvents))
	output.WriteString(fmt.Sprintf("Success Rate: %.1f%%\n", stats.SuccessRate*100))
	output.WriteString(fmt.Sprintf("Total Tokens: %d\n", stats.TotalTokens))
	output.WriteString(fmt.Sprintf("Total Cost: $%.4f\n", stats.TotalCost))
	output.WriteString(fmt.Sprintf("Avg Confidence: %.2f\n", stats.AvgConfidence))
	output.WriteString(fmt.Sprintf("Avg Processing: %.0fms\n", stats.AvgProcessingMS))

	if len(stats.EventsByProvider) > 0 {
		output.WriteString("\n=== BY PROVIDER ===\n")
		for _, provider := range slices.Sorted(maps.Keys(stats.EventsByProvider)) {
			output.WriteString(fmt.Sprintf("%s: %d events, $%.4f\n",
				provider, stats.EventsByProvider[provider], stats.CostByProvider[provider]))
		}
	}

	if len(stats.EventsByOperation) > 0 {
		output.WriteString("\n=== BY OPERATION ===\n")
		for _, operation := range slices.Sorted(maps.Keys(stats.EventsByOperation)) {
			output.WriteString(fmt.Sprintf("%s: %d\n", operation, stats.EventsByOperation[operation]))
		}
	}

	return output.String(), nil
}

func (ustf *UsageStatsTextFormatter) SupportedType() string {
	return "UsageStats"
}

// UsageStatsMarkdownFormatter handles markdown formatting for usage statistics
type UsageStatsMarkdownFormatter struct{}

func (usmf *UsageStatsMarkdownFormatter) Format(data any) (string, error) {
	stats, ok := data.(types.UsageStats)
	if !ok {
		return "", fmt.Errorf("expected UsageStats, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# Usage Statistics (last %d days)\n\n", stats.WindowDays))
	output.WriteString(fmt.Sprintf("**Events:** %d\n", stats.TotalEvents))
	output.WriteString(fmt.Sprintf("**Success Rate:** %.1f%%\n", stats.SuccessRate*100))
	output.WriteString(fmt.Sprintf("**Total Tokens:** %d\n", stats.TotalTokens))
	output.WriteString(fmt.Sprintf("**Total Cost:** $%.4f\n", stats.TotalCost))
	output.WriteString(fmt.Sprintf("**Avg Confidence:** %.2f\n", stats.AvgConfidence))
	output.WriteString(fmt.Sprintf("**Avg Processing:** %.0fms\n", stats.AvgProcessingMS))

	if len(stats.EventsByProvider) > 0 {
		output.WriteString("\n## By Provider\n\n")
		for _, provider := range slices.Sorted(maps.Keys(stats.EventsByProvider)) {
			output.WriteString(fmt.Sprintf("- **%s:** %d events, $%.4f\n",
				provider, stats.EventsByProvider[provider], stats.CostByProvider[provider]))
		}
	}

	if len(stats.EventsByOperation) > 0 {
		output.WriteString("\n## By Operation\n\n")
		for _, operation := range slices.Sorted(maps.Keys(stats.EventsByOperation)) {
			output.WriteString(fmt.Sprintf("- **%s:** %d\n", operation, stats.EventsByOperation[operation]))
		}
	}

	return output.String(), nil
}

func (usmf *UsageStatsMarkdownFormatter) SupportedType() string {
	return "UsageStats"
}

// CostMonitoringTextFormatter handles text formatting for cost monitoring
type CostMonitoringTextFormatter struct{}

func (cmtf *CostMonitoringTextFormatter) Format(data any) (string, error) {
	monitoring, ok := data.(types.CostMonitoring)
	if !ok {
		return "", fmt.Errorf("expected CostMonitoring, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COST MONITORING ===\n\n")
	output.WriteString(fmt.Sprintf("Today: $%.2f\n", monitoring.CurrentSpending.Today))
	output.WriteString(fmt.Sprintf("This Month: $%.2f\n", monitoring.CurrentSpending.ThisMonth))
	output.WriteString(fmt.Sprintf("Projected Monthly: $%.2f\n", monitoring.ProjectedSpending.Monthly))
	if monitoring.DailyLimit > 0 {
		output.WriteString(fmt.Sprintf("Daily Limit: $%.2f\n", monitoring.DailyLimit))
	}
	if monitoring.MonthlyLimit > 0 {
		output.WriteString(fmt.Sprintf("Monthly Limit: $%.2f\n", monitoring.MonthlyLimit))
	}

	output.WriteString("\n=== ALERTS ===\n")
	if len(monitoring.Alerts) > 0 {
		for _, alert := range monitoring.Alerts {
			output.WriteString(fmt.Sprintf("- [%s] %s\n", alert.Kind, alert.Message))
		}
	} else {
		output.WriteString("No alerts.\n")
	}

	return output.String(), nil
}

func (cmtf *CostMonitoringTextFormatter) SupportedType() string {
	return "CostMonitoring"
}

// CostMonitoringMarkdownFormatter handles markdown formatting for cost monitoring
type CostMonitoringMarkdownFormatter struct{}

func (cmmf *CostMonitoringMarkdownFormatter) Format(data any) (string, error) {
	monitoring, ok := data.(types.CostMonitoring)
	if !ok {
		return "", fmt.Errorf("expected CostMonitoring, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Cost Monitoring\n\n")
	output.WriteString("## Current Spending\n\n")
	output.WriteString(fmt.Sprintf("**Today:** $%.2f\n", monitoring.CurrentSpending.Today))
	output.WriteString(fmt.Sprintf("**This Month:** $%.2f\n", monitoring.CurrentSpending.ThisMonth))
	output.WriteString(fmt.Sprintf("**Projected Monthly:** $%.2f\n", monitoring.ProjectedSpending.Monthly))
	if monitoring.DailyLimit > 0 {
		output.WriteString(fmt.Sprintf("**Daily Limit:** $%.2f\n", monitoring.DailyLimit))
	}
	if monitoring.MonthlyLimit > 0 {
		output.WriteString(fmt.Sprintf("**Monthly Limit:** $%.2f\n", monitoring.MonthlyLimit))
	}

	if len(monitoring.Alerts) > 0 {
		output.WriteString("\n## Alerts\n\n")
		for _, alert := range monitoring.Alerts {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", alert.Kind, alert.Message))
		}
	} else {
		output.WriteString("\n## No Alerts\n\nSpending is within the configured limits.\n")
	}

	return output.String(), nil
}

func (cmmf *CostMonitoringMarkdownFormatter) SupportedType() string {
	return "CostMonitoring"
}
