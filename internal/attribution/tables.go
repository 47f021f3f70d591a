package attribution

// DefaultReferrerRules returns the built-in AI assistant referrer table.
func DefaultReferrerRules() *Table {
	return NewTable(
		MustRule(`chatgpt\.com`, "chatgpt"),
		MustRule(`chat\.openai\.com`, "chatgpt"),
		MustRule(`claude\.ai`, "claude"),
		MustRule(`anthropic\.com`, "claude"),
		MustRule(`perplexity\.ai`, "perplexity"),
		MustRule(`bing\.com.*chat`, "copilot"),
		MustRule(`copilot\.microsoft\.com`, "copilot"),
		MustRule(`gemini\.google\.com`, "gemini"),
		MustRule(`bard\.google\.com`, "gemini"),
		MustRule(`you\.com`, "you"),
		MustRule(`phind\.com`, "phind"),
		MustRule(`kagi\.com`, "kagi"),
	)
}

// DefaultBotRules returns the built-in AI crawler user-agent table.
func DefaultBotRules() *Table {
	return NewTable(
		MustRule(`GPTBot`, "gptbot"),
		MustRule(`ChatGPT-User`, "chatgpt-user"),
		MustRule(`Claude-Web`, "claude-web"),
		MustRule(`Anthropic`, "anthropic"),
		MustRule(`PerplexityBot`, "perplexitybot"),
		MustRule(`Cohere-ai`, "cohere"),
		MustRule(`YouBot`, "youbot"),
	)
}

// Rules bundles the referrer and bot tables used by a Classifier.
type Rules struct {
	Referrers *Table
	Bots      *Table
}

// DefaultRules returns the built-in referrer and bot tables.
func DefaultRules() Rules {
	return Rules{
		Referrers: DefaultReferrerRules(),
		Bots:      DefaultBotRules(),
	}
}
