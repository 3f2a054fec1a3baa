package types

// SendRequest is a single-turn message to a text-generation provider
type SendRequest struct {
	Prompt string // user message content
	System string // optional system instruction
}
