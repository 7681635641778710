// Package model manages access to the locally hosted language model.
//
// The only backend is an Ollama-compatible HTTP endpoint. Calls are
// best-effort: a fixed timeout, no retry, and callers treat a failed call
// as "no model response" rather than an error.
package model

import "context"

// Model is the interface to a text generation backend.
type Model interface {
	// Generate sends a prompt and returns the generated text.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// IsAvailable reports whether the backend is configured and enabled.
	IsAvailable() bool

	// Name returns the model name.
	Name() string
}

// Request for text generation.
type Request struct {
	Prompt string
}

// Response from text generation.
type Response struct {
	Text  string
	Model string
}
