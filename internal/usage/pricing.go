package usage

import "strings"

// modelRate prices one model family in USD per million tokens. Figures are
// advisory local estimates for budgeting, never billing-accurate.
type modelRate struct {
	Prefix    string
	InputUSD  float64
	OutputUSD float64
}

// pricingTable is ordered by prefix specificity within each provider; the
// first matching prefix wins.
var pricingTable = map[string][]modelRate{
	"openai": {
		{Prefix: "gpt-4o-mini", InputUSD: 0.15, OutputUSD: 0.60},
		{Prefix: "gpt-4o", InputUSD: 2.50, OutputUSD: 10.00},
		{Prefix: "gpt-4.1-mini", InputUSD: 0.40, OutputUSD: 1.60},
		{Prefix: "gpt-4.1", InputUSD: 2.00, OutputUSD: 8.00},
		{Prefix: "gpt-3.5", InputUSD: 0.50, OutputUSD: 1.50},
		{Prefix: "o3-mini", InputUSD: 1.10, OutputUSD: 4.40},
		{Prefix: "o3", InputUSD: 2.00, OutputUSD: 8.00},
		{Prefix: "o1", InputUSD: 15.00, OutputUSD: 60.00},
	},
	"anthropic": {
		{Prefix: "claude-3-5-sonnet", InputUSD: 3.00, OutputUSD: 15.00},
		{Prefix: "claude-3-5-haiku", InputUSD: 0.80, OutputUSD: 4.00},
		{Prefix: "claude-3-opus", InputUSD: 15.00, OutputUSD: 75.00},
		{Prefix: "claude-3-haiku", InputUSD: 0.25, OutputUSD: 1.25},
		{Prefix: "claude", InputUSD: 3.00, OutputUSD: 15.00},
	},
	"gemini": {
		{Prefix: "gemini-2.0-flash-lite", InputUSD: 0.075, OutputUSD: 0.30},
		{Prefix: "gemini-2.0-flash", InputUSD: 0.10, OutputUSD: 0.40},
		{Prefix: "gemini-1.5-flash", InputUSD: 0.075, OutputUSD: 0.30},
		{Prefix: "gemini-1.5-pro", InputUSD: 1.25, OutputUSD: 5.00},
		{Prefix: "gemini", InputUSD: 0.10, OutputUSD: 0.40},
	},
}

// defaultRate covers unknown providers and models so estimates stay
// non-zero rather than silently undercounting.
var defaultRate = modelRate{InputUSD: 1.00, OutputUSD: 3.00}

func rateFor(provider, model string) modelRate {
	model = strings.ToLower(model)
	for _, rate := range pricingTable[strings.ToLower(provider)] {
		if strings.HasPrefix(model, rate.Prefix) {
			return rate
		}
	}
	return defaultRate
}

// EstimateCost returns the advisory USD cost of one call from its token
// counts.
func EstimateCost(provider, model string, inputTokens, outputTokens int64) float64 {
	rate := rateFor(provider, model)
	const million = 1_000_000
	return float64(inputTokens)/million*rate.InputUSD +
		float64(outputTokens)/million*rate.OutputUSD
}
