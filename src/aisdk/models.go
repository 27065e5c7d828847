package aisdk

import (
	"fmt"
	"sort"
)

// ModelInfo describes one selectable chat model.
type ModelInfo struct {
	// ID is what clients send as modelId.
	ID string `json:"id"`
	// Label is the display name.
	Label string `json:"label"`
	// APIIdentifier is the name the vendor API knows the model by.
	APIIdentifier string   `json:"apiIdentifier"`
	Description   string   `json:"description"`
	Provider      Provider `json:"provider"`
}

// DefaultModelID is used when a request names no model.
const DefaultModelID = "gpt-4o-mini"

var models = []ModelInfo{
	{
		ID:            "gpt-4o-mini",
		Label:         "GPT 4o mini",
		APIIdentifier: "gpt-4o-mini",
		Description:   "Small model for fast, lightweight tasks",
		Provider:      ProviderOpenAI,
	},
	{
		ID:            "gpt-4o",
		Label:         "GPT 4o",
		APIIdentifier: "gpt-4o",
		Description:   "For complex, multi-step tasks",
		Provider:      ProviderOpenAI,
	},
	{
		ID:            "gemini-1.5-pro",
		Label:         "Gemini 1.5 Pro",
		APIIdentifier: "gemini-pro",
		Description:   "Google's multimodal model",
		Provider:      ProviderGemini,
	},
	{
		ID:            "claude-3-opus-20240229",
		Label:         "Claude 3 Opus",
		APIIdentifier: "claude-3-opus-20240229",
		Description:   "Anthropic's most capable model",
		Provider:      ProviderClaude,
	},
}

// Models returns the catalogue in display order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(models))
	copy(out, models)
	return out
}

// LookupModel finds a model by ID.
func LookupModel(id string) (ModelInfo, error) {
	for _, m := range models {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelInfo{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
}

// Providers returns the distinct providers in the catalogue, sorted.
func Providers() []Provider {
	seen := make(map[Provider]bool)
	var out []Provider
	for _, m := range models {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			out = append(out, m.Provider)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
