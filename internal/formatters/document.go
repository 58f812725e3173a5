package formatters

import (
	"fmt"
	"strings"

	"resumelift/internal/types"
)

// DocumentTextFormatter handles text formatting for resume documents
type DocumentTextFormatter struct{}

func (dtf *DocumentTextFormatter) Format(data any) (string, error) {
	doc, ok := data.(types.ResumeData)
	if !ok {
		return "", fmt.Errorf("expected ResumeData, got %T", data)
	}

	var output strings.Builder
	writeDocumentText(&output, doc)
	return output.String(), nil
}

func (dtf *DocumentTextFormatter) SupportedType() string {
	return "ResumeData"
}

// DocumentMarkdownFormatter handles markdown formatting for resume documents
type DocumentMarkdownFormatter struct{}

func (dmf *DocumentMarkdownFormatter) Format(data any) (string, error) {
	doc, ok := data.(types.ResumeData)
	if !ok {
		return "", fmt.Errorf("expected ResumeData, got %T", data)
	}

	var output strings.Builder
	writeDocumentMarkdown(&output, doc)
	return output.String(), nil
}

func (dmf *DocumentMarkdownFormatter) SupportedType() string {
	return "ResumeData"
}

// writeDocumentText renders a document section by section. Shared with the
// enhancement formatter, which embeds the enhanced document.
func writeDocumentText(output *strings.Builder, doc types.ResumeData) {
	info := doc.PersonalInfo
	output.WriteString("=== PERSONAL INFO ===\n")
	writeField(output, "Name", info.FullName)
	writeField(output, "Email", info.Email)
	writeField(output, "Phone", info.Phone)
	writeField(output, "Location", info.Location)
	writeField(output, "Website", info.Website)
	writeField(output, "LinkedIn", info.LinkedIn)
	if info.Summary != "" {
		output.WriteString("\nSummary:\n")
		output.WriteString(info.Summary)
		output.WriteString("\n")
	}
	output.WriteString("\n")

	if len(doc.Skills) > 0 {
		output.WriteString("=== SKILLS ===\n")
		for _, group := range doc.Skills {
			output.WriteString(fmt.Sprintf("%s: %s\n", group.Category, strings.Join(group.Items, ", ")))
		}
		output.WriteString("\n")
	}

	if len(doc.Experience) > 0 {
		output.WriteString("=== EXPERIENCE ===\n")
		for i, exp := range doc.Experience {
			output.WriteString(fmt.Sprintf("%d. %s at %s", i+1, exp.Position, exp.Company))
			if dates := dateRange(exp.StartDate, exp.EndDate, exp.Current); dates != "" {
				output.WriteString(fmt.Sprintf(" (%s)", dates))
			}
			output.WriteString("\n")
			if exp.Location != "" {
				output.WriteString(fmt.Sprintf("   Location: %s\n", exp.Location))
			}
			if exp.Description != "" {
				output.WriteString(fmt.Sprintf("   %s\n", exp.Description))
			}
			for _, highlight := range exp.Highlights {
				output.WriteString(fmt.Sprintf("   - %s\n", highlight))
			}
		}
		output.WriteString("\n")
	}

	if len(doc.Education) > 0 {
		output.WriteString("=== EDUCATION ===\n")
		for i, edu := range doc.Education {
			output.WriteString(fmt.Sprintf("%d. %s", i+1, edu.Institution))
			if degree := degreeLine(edu); degree != "" {
				output.WriteString(" - " + degree)
			}
			if dates := dateRange(edu.StartDate, edu.EndDate, false); dates != "" {
				output.WriteString(fmt.Sprintf(" (%s)", dates))
			}
			output.WriteString("\n")
			if edu.GPA != "" {
				output.WriteString(fmt.Sprintf("   GPA: %s\n", edu.GPA))
			}
			for _, honor := range edu.Honors {
				output.WriteString(fmt.Sprintf("   - %s\n", honor))
			}
		}
		output.WriteString("\n")
	}

	if len(doc.Projects) > 0 {
		output.WriteString("=== PROJECTS ===\n")
		for i, project := range doc.Projects {
			output.WriteString(fmt.Sprintf("%d. %s", i+1, project.Name))
			if project.URL != "" {
				output.WriteString(fmt.Sprintf(" (%s)", project.URL))
			}
			output.WriteString("\n")
			if project.Description != "" {
				output.WriteString(fmt.Sprintf("   %s\n", project.Description))
			}
			if len(project.Technologies) > 0 {
				output.WriteString(fmt.Sprintf("   Technologies: %s\n", strings.Join(project.Technologies, ", ")))
			}
			for _, highlight := range project.Highlights {
				output.WriteString(fmt.Sprintf("   - %s\n", highlight))
			}
		}
		output.WriteString("\n")
	}
}

// writeDocumentMarkdown renders a document section by section as markdown.
func writeDocumentMarkdown(output *strings.Builder, doc types.ResumeData) {
	info := doc.PersonalInfo
	if info.FullName != "" {
		output.WriteString(fmt.Sprintf("# %s\n\n", info.FullName))
	} else {
		output.WriteString("# Resume\n\n")
	}
	writeFieldMarkdown(output, "Email", info.Email)
	writeFieldMarkdown(output, "Phone", info.Phone)
	writeFieldMarkdown(output, "Location", info.Location)
	writeFieldMarkdown(output, "Website", info.Website)
	writeFieldMarkdown(output, "LinkedIn", info.LinkedIn)
	output.WriteString("\n")
	if info.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(info.Summary)
		output.WriteString("\n\n")
	}

	if len(doc.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		for _, group := range doc.Skills {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", group.Category, strings.Join(group.Items, ", ")))
		}
		output.WriteString("\n")
	}

	if len(doc.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, exp := range doc.Experience {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n", exp.Position, exp.Company))
			if dates := dateRange(exp.StartDate, exp.EndDate, exp.Current); dates != "" {
				writeFieldMarkdown(output, "Dates", dates)
			}
			writeFieldMarkdown(output, "Location", exp.Location)
			output.WriteString("\n")
			if exp.Description != "" {
				output.WriteString(exp.Description)
				output.WriteString("\n\n")
			}
			for _, highlight := range exp.Highlights {
				output.WriteString(fmt.Sprintf("- %s\n", highlight))
			}
			if len(exp.Highlights) > 0 {
				output.WriteString("\n")
			}
		}
	}

	if len(doc.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, edu := range doc.Education {
			output.WriteString(fmt.Sprintf("### %s\n\n", edu.Institution))
			writeFieldMarkdown(output, "Degree", degreeLine(edu))
			if dates := dateRange(edu.StartDate, edu.EndDate, false); dates != "" {
				writeFieldMarkdown(output, "Dates", dates)
			}
			writeFieldMarkdown(output, "GPA", edu.GPA)
			output.WriteString("\n")
			for _, honor := range edu.Honors {
				output.WriteString(fmt.Sprintf("- %s\n", honor))
			}
			if len(edu.Honors) > 0 {
				output.WriteString("\n")
			}
		}
	}

	if len(doc.Projects) > 0 {
		output.WriteString("## Projects\n\n")
		for _, project := range doc.Projects {
			output.WriteString(fmt.Sprintf("### %s\n\n", project.Name))
			writeFieldMarkdown(output, "URL", project.URL)
			if len(project.Technologies) > 0 {
				writeFieldMarkdown(output, "Technologies", strings.Join(project.Technologies, ", "))
			}
			output.WriteString("\n")
			if project.Description != "" {
				output.WriteString(project.Description)
				output.WriteString("\n\n")
			}
			for _, highlight := range project.Highlights {
				output.WriteString(fmt.Sprintf("- %s\n", highlight))
			}
			if len(project.Highlights) > 0 {
				output.WriteString("\n")
			}
		}
	}
}

// writeField writes "Label: value" and skips empty values.
func writeField(output *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	output.WriteString(fmt.Sprintf("%s: %s\n", label, value))
}

// writeFieldMarkdown writes "**Label:** value" and skips empty values.
func writeFieldMarkdown(output *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	output.WriteString(fmt.Sprintf("**%s:** %s\n", label, value))
}

// dateRange joins start and end dates; current entries end at "present".
func dateRange(start, end string, current bool) string {
	if current {
		end = "present"
	}
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	case end != "":
		return end
	default:
		return ""
	}
}

func degreeLine(edu types.Education) string {
	switch {
	case edu.Degree != "" && edu.Field != "":
		return edu.Degree + ", " + edu.Field
	case edu.Degree != "":
		return edu.Degree
	default:
		return edu.Field
	}
}
