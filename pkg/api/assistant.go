package api

import "time"

const HealthyStatus = "healthy"

type ModelConfiguration struct {
	MaxTokens        int     `json:"maxTokens" yaml:"max_tokens"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	TopP             float64 `json:"topP" yaml:"top_p"`
	PresencePenalty  float64 `json:"presencePenalty" yaml:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequencyPenalty" yaml:"frequency_penalty"`
}

// ModelRequest is the body of POST /chat on the upstream assistant.
type ModelRequest struct {
	Messages           []ChatMessage      `json:"messages"`
	ModelConfiguration ModelConfiguration `json:"modelConfiguration"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

type ModelResponse struct {
	Choices  []Choice       `json:"choices"`
	Usage    Usage          `json:"usage"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ModelHealth is the body of GET /health on the upstream assistant.
type ModelHealth struct {
	Model     string     `json:"model,omitempty"`
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
