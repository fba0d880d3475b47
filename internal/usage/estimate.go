package usage

// EstimateTokens approximates a token count from text length using a fixed
// four-characters-per-token heuristic. It is used only when the server never
// reported usage for a completed unit.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// Info is the resolved usage for one completed stream, side, or agent.
// Estimated is true when the figures came from local text-length estimation
// rather than server-reported counts; the two sources are never mixed.
type Info struct {
	TokensIn  int
	TokensOut int
	Cost      float64
	Estimated bool
}

// FromServer builds an Info from server-reported token counts.
func FromServer(tokensIn, tokensOut int, modelID string) Info {
	return Info{
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		Cost:      Cost(tokensIn, tokensOut, modelID),
		Estimated: false,
	}
}

// Estimate builds an Info from accumulated prompt and response text.
func Estimate(prompt, response, modelID string) Info {
	tokensIn := EstimateTokens(prompt)
	tokensOut := EstimateTokens(response)
	return Info{
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		Cost:      Cost(tokensIn, tokensOut, modelID),
		Estimated: true,
	}
}
