package types

import "context"

// Provider is a synchronous text-generation backend
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// SendMessage sends a single-turn message and returns the reply
	SendMessage(ctx context.Context, req SendRequest) (*SendResponse, error)
}
