package model

// ================ Config ================
type ConversationConfig struct {
	TTL   string `envconfig:"CONVERSATION_TTL" default:"15m"`
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"6"`
	}
	Reason struct {
		MaxTurns int `envconfig:"CONVERSATION_REASON_MAX_TURNS" default:"20"`
	}
}

// ReasonModelConfig drives the "think step by step" stage of the staged agent.
type ReasonModelConfig struct {
	Model       string  `envconfig:"REASON_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"REASON_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"REASON_TEMPERATURE" default:"0.7"`
}

// ResponseModelConfig drives the tool-calling decision/response stage and the
// direct agent.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}
