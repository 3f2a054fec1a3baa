package types

// Usage holds token accounting reported by the provider
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// SendResponse is a successful provider reply
type SendResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// SendResult is the caller-facing outcome shape. Transport and service
// failures are folded into it; they never escape as raw errors.
type SendResult struct {
	Success bool
	Content string
	Model   string
	Usage   Usage
	Error   string
}
