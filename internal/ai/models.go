package ai

import (
	"sort"
	"strings"

	"resumelift/internal/types"
)

// catalogEntry is the static per-provider model metadata record: family
// substrings admit models from the vendor listing, deny substrings drop
// non-completion models, and the prefix lists mark lifecycle flags.
type catalogEntry struct {
	DefaultModel       string
	Families           []string
	Denied             []string
	RecommendedExact   map[string]bool
	DeprecatedPrefixes []string
}

var modelCatalog = map[ProviderID]catalogEntry{
	ProviderOpenAI: {
		DefaultModel: "gpt-4o-mini",
		Families:     []string{"gpt-", "o1", "o3", "chatgpt"},
		Denied: []string{
			"audio", "realtime", "embedding", "whisper", "tts",
			"dall-e", "moderation", "transcribe", "search", "instruct",
		},
		RecommendedExact: map[string]bool{
			"gpt-4o":      true,
			"gpt-4o-mini": true,
		},
		DeprecatedPrefixes: []string{"gpt-3.5", "gpt-4-0613", "gpt-4-32k"},
	},
	ProviderAnthropic: {
		DefaultModel: "claude-3-5-sonnet-20241022",
		Families:     []string{"claude"},
		Denied:       nil,
		RecommendedExact: map[string]bool{
			"claude-3-5-sonnet-20241022": true,
			"claude-3-5-haiku-20241022":  true,
		},
		DeprecatedPrefixes: []string{"claude-2", "claude-instant"},
	},
	ProviderGemini: {
		DefaultModel: "gemini-2.0-flash",
		Families:     []string{"gemini"},
		Denied:       []string{"embedding", "aqa", "imagen", "learnlm"},
		RecommendedExact: map[string]bool{
			"gemini-2.0-flash": true,
			"gemini-1.5-pro":   true,
		},
		DeprecatedPrefixes: []string{"gemini-1.0", "gemini-pro-vision"},
	},
}

// DefaultModel returns the model used when a caller names a provider but no
// model.
func DefaultModel(p ProviderID) string {
	return modelCatalog[p].DefaultModel
}

// catalogAdmits reports whether a vendor-listed model belongs in pickers:
// it must match a completion family and none of the deny markers.
func catalogAdmits(p ProviderID, id string) bool {
	entry, ok := modelCatalog[p]
	if !ok {
		return false
	}
	lower := strings.ToLower(id)
	for _, denied := range entry.Denied {
		if strings.Contains(lower, denied) {
			return false
		}
	}
	for _, family := range entry.Families {
		if strings.Contains(lower, family) {
			return true
		}
	}
	return false
}

// annotateModel attaches catalog metadata to one admitted model ID.
func annotateModel(p ProviderID, id, displayName string) types.ModelInfo {
	entry := modelCatalog[p]
	if displayName == "" {
		displayName = id
	}

	info := types.ModelInfo{
		ID:          id,
		DisplayName: displayName,
		Recommended: entry.RecommendedExact[id],
	}
	lower := strings.ToLower(id)
	for _, family := range entry.Families {
		if strings.Contains(lower, family) {
			info.Family = strings.Trim(family, "-")
			break
		}
	}
	for _, prefix := range entry.DeprecatedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			info.Deprecated = true
			break
		}
	}
	return info
}

// FilterModelsByFamily keeps models whose family or ID contains the given
// substring, case-insensitively. An empty filter keeps everything.
func FilterModelsByFamily(models []types.ModelInfo, family string) []types.ModelInfo {
	if family == "" {
		return models
	}
	needle := strings.ToLower(family)
	out := make([]types.ModelInfo, 0, len(models))
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Family), needle) ||
			strings.Contains(strings.ToLower(m.ID), needle) {
			out = append(out, m)
		}
	}
	return out
}

// sortModels orders recommended models first, then by ID.
func sortModels(models []types.ModelInfo) {
	sort.Slice(models, func(i, j int) bool {
		if models[i].Recommended != models[j].Recommended {
			return models[i].Recommended
		}
		return models[i].ID < models[j].ID
	})
}
