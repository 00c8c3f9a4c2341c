package llm

// charsPerToken approximates English text; real tokenizers vary.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken // round up
}

// EstimatePromptTokens returns the estimated tokens for a system prompt plus
// user prompt, including per-message framing.
func EstimatePromptTokens(systemPrompt, prompt string) int {
	return EstimateTokens(systemPrompt) + EstimateTokens(prompt) + 8
}
