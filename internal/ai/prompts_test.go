package ai

import (
	"fmt"
	"strings"
	"testing"

	"resumelift/internal/types"
)

func TestBuildEnhancePrompts(t *testing.T) {
	cfg := GetDefaultPromptConfig()
	req := types.EnhancementRequest{
		ParsedData:       parserFixture(),
		JobDescription:   "Looking for a Go platform engineer.",
		UserInstructions: "Emphasize distributed systems.",
		FocusAreas:       []string{"skills", "experience"},
		Level:            types.LevelComprehensive,
		Mode:             types.ModeEnhance,
	}

	system, user, err := BuildPrompts(cfg, req, parserNow())
	if err != nil {
		t.Fatalf("BuildPrompts failed: %v", err)
	}

	if !strings.Contains(system, "NEVER fabricate") {
		t.Error("system prompt lost the fabrication rule")
	}
	if !strings.Contains(system, "Enhancement level: comprehensive") {
		t.Error("level instruction not appended")
	}
	if !strings.Contains(user, `"fullName": "Ada Lovelace"`) {
		t.Error("resume data not embedded in user prompt")
	}
	if !strings.Contains(user, "Looking for a Go platform engineer.") {
		t.Error("job description missing from context block")
	}
	if !strings.Contains(user, "Emphasize distributed systems.") {
		t.Error("user instructions missing from context block")
	}
	if !strings.Contains(user, "Focus areas: skills, experience") {
		t.Error("focus areas missing from context block")
	}
	if !strings.Contains(user, `"enhancedData"`) || !strings.Contains(user, `"suggestions"`) {
		t.Error("response envelope shape missing from user prompt")
	}
}

func TestBuildEnhancePromptsEmptyContext(t *testing.T) {
	req := types.EnhancementRequest{
		ParsedData: parserFixture(),
		Mode:       types.ModeEnhance,
	}

	system, user, err := BuildPrompts(GetDefaultPromptConfig(), req, parserNow())
	if err != nil {
		t.Fatalf("BuildPrompts failed: %v", err)
	}

	if !strings.Contains(user, "None.") {
		t.Error("empty context should render as None.")
	}
	// Unknown level defaults to moderate.
	if !strings.Contains(system, "Enhancement level: moderate") {
		t.Error("missing level should default to moderate")
	}
}

func TestLevelInstruction(t *testing.T) {
	tests := []struct {
		level types.EnhancementLevel
		want  string
	}{
		{types.LevelLight, "light"},
		{types.LevelModerate, "moderate"},
		{types.LevelComprehensive, "comprehensive"},
		{types.EnhancementLevel("extreme"), "moderate"},
		{"", "moderate"},
	}
	for _, tt := range tests {
		if got := LevelInstruction(tt.level); !strings.Contains(got, "Enhancement level: "+tt.want) {
			t.Errorf("LevelInstruction(%q) = %q, want the %s instruction", tt.level, got, tt.want)
		}
	}
}

func TestBuildReparsePrompts(t *testing.T) {
	now := parserNow()
	req := types.EnhancementRequest{
		OriginalText: "ADA LOVELACE\nAnalyst, Analytical Engines Ltd",
		ParsedData:   parserFixture(),
		Mode:         types.ModeReparse,
	}

	system, user, err := BuildPrompts(GetDefaultPromptConfig(), req, now)
	if err != nil {
		t.Fatalf("BuildPrompts failed: %v", err)
	}

	if !strings.Contains(system, "ONLY the raw JSON") {
		t.Error("reparse system prompt lost the raw-JSON rule")
	}
	if !strings.Contains(user, "ADA LOVELACE") {
		t.Error("raw text not embedded")
	}
	if !strings.Contains(user, fmt.Sprintf("timestamp %d", now.UnixMilli())) {
		t.Error("item ID timestamp not embedded")
	}
	if !strings.Contains(user, `"personalInfo"`) || !strings.Contains(user, `"projects"`) {
		t.Error("document schema skeleton missing")
	}
}

func TestBuildPromptsUnknownMode(t *testing.T) {
	req := types.EnhancementRequest{ParsedData: parserFixture(), Mode: "summarize"}
	if _, _, err := BuildPrompts(GetDefaultPromptConfig(), req, parserNow()); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestPromptConfigOverrides(t *testing.T) {
	cfg := GetDefaultPromptConfig()
	cfg.SystemPrompts.Enhance = "Custom system rules."
	cfg.UserPrompts.Enhance = "Resume: %s Context: %s"

	req := types.EnhancementRequest{ParsedData: parserFixture(), Mode: types.ModeEnhance}
	system, user, err := BuildPrompts(cfg, req, parserNow())
	if err != nil {
		t.Fatalf("BuildPrompts failed: %v", err)
	}

	if !strings.HasPrefix(system, "Custom system rules.") {
		t.Errorf("system = %q, want the configured override", system)
	}
	if !strings.Contains(system, "Enhancement level:") {
		t.Error("level instruction should still append to overridden prompts")
	}
	if !strings.HasPrefix(user, "Resume: {") {
		t.Errorf("user = %q, want the configured template", user)
	}

	// Blank overrides fall back to the defaults.
	cfg.SystemPrompts.Enhance = "   "
	system, _, err = BuildPrompts(cfg, req, parserNow())
	if err != nil {
		t.Fatalf("BuildPrompts failed: %v", err)
	}
	if !strings.Contains(system, "NEVER fabricate") {
		t.Error("blank override should fall back to the default prompt")
	}
}
