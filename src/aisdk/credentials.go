package aisdk

// Credentials carries the per-vendor API keys for one request. Keys supplied
// by the user take precedence over server defaults through Merge.
type Credentials struct {
	OpenAI     string `json:"openaiApiKey,omitempty"`
	Google     string `json:"googleApiKey,omitempty"`
	Anthropic  string `json:"anthropicApiKey,omitempty"`
	MarketData string `json:"financialDatasetsApiKey,omitempty"`
}

// KeyFor returns the key used by the given provider.
func (c Credentials) KeyFor(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderGemini:
		return c.Google
	case ProviderClaude:
		return c.Anthropic
	default:
		return ""
	}
}

// Merge fills every empty key in c from defaults.
func (c Credentials) Merge(defaults Credentials) Credentials {
	if c.OpenAI == "" {
		c.OpenAI = defaults.OpenAI
	}
	if c.Google == "" {
		c.Google = defaults.Google
	}
	if c.Anthropic == "" {
		c.Anthropic = defaults.Anthropic
	}
	if c.MarketData == "" {
		c.MarketData = defaults.MarketData
	}
	return c
}

// HasModelKey reports whether any model vendor key is set.
func (c Credentials) HasModelKey() bool {
	return c.OpenAI != "" || c.Google != "" || c.Anthropic != ""
}
