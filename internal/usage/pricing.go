// Package usage computes token counts, USD cost, and display formatting for
// streamed completions, from server-reported usage or local estimation.
package usage

// Rate is the USD cost per one million tokens.
type Rate struct {
	Input  float64
	Output float64
}

// DefaultRate is applied to model ids missing from the pricing table. Cost
// display is advisory, not billing-authoritative, so unknown models get a
// conservative rate instead of an error.
var DefaultRate = Rate{Input: 1.00, Output: 5.00}

// pricingTable maps fully-qualified model ids (provider/model) to rates.
// Updating it requires no engine changes.
var pricingTable = map[string]Rate{
	// Anthropic
	"anthropic/claude-opus-4.6":     {Input: 15.00, Output: 75.00},
	"anthropic/claude-opus-4.5":     {Input: 15.00, Output: 75.00},
	"anthropic/claude-sonnet-4.5":   {Input: 3.00, Output: 15.00},
	"anthropic/claude-haiku-4.5":    {Input: 0.80, Output: 4.00},
	"anthropic/claude-3.5-haiku":    {Input: 0.80, Output: 4.00},
	// OpenAI
	"openai/gpt-5":                  {Input: 2.50, Output: 10.00},
	"openai/gpt-4.1":                {Input: 2.00, Output: 8.00},
	"openai/gpt-4.1-mini":           {Input: 0.40, Output: 1.60},
	"openai/gpt-4.1-nano":           {Input: 0.10, Output: 0.40},
	"openai/o3":                     {Input: 10.00, Output: 40.00},
	"openai/o4-mini":                {Input: 1.10, Output: 4.40},
	// Google
	"google/gemini-2.5-pro":         {Input: 1.25, Output: 10.00},
	"google/gemini-2.5-flash":       {Input: 0.15, Output: 0.60},
	"google/gemini-2.0-flash":       {Input: 0.10, Output: 0.40},
	// Meta
	"meta-llama/llama-4-maverick":   {Input: 0.50, Output: 0.70},
	"meta-llama/llama-4-scout":      {Input: 0.15, Output: 0.40},
	// DeepSeek
	"deepseek/deepseek-r1":          {Input: 0.55, Output: 2.19},
	"deepseek/deepseek-chat-v3-0324": {Input: 0.27, Output: 1.10},
	// Mistral
	"mistralai/mistral-large":       {Input: 2.00, Output: 6.00},
	"mistralai/mistral-small":       {Input: 0.10, Output: 0.30},
}

// Pricing returns the rate for modelID, falling back to DefaultRate for
// unknown ids. It never returns a zero rate.
func Pricing(modelID string) Rate {
	if rate, ok := pricingTable[modelID]; ok {
		return rate
	}
	return DefaultRate
}

// Cost computes the USD cost of a request against modelID's rate.
func Cost(tokensIn, tokensOut int, modelID string) float64 {
	rate := Pricing(modelID)
	return (float64(tokensIn)*rate.Input + float64(tokensOut)*rate.Output) / 1e6
}
