// Package genai wraps the external text-generation service behind a single
// request/response call. The transport is injected so tests and alternative
// providers can substitute the network layer.
package genai

import (
	"context"
	"encoding/json"
	"fmt"

	"medflow/internal/prompts"
)

// Request is the provider-agnostic shape of one generation call.
type Request struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	User        string
	JSONMode    bool
}

// CompleteFunc performs one blocking generation call and returns the raw
// reply text. No retries, streaming, or caching happen at this layer.
type CompleteFunc func(ctx context.Context, req Request) (string, error)

// Result carries the reply either as free text or, for JSON-mode stages, as
// the parsed object.
type Result struct {
	Text string
	JSON map[string]any
}

// GenerationError wraps a transport failure with the upstream message.
type GenerationError struct {
	Err error
}

func (e GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }
func (e GenerationError) Unwrap() error { return e.Err }

// MalformedError reports a JSON-mode reply that did not parse as an object.
type MalformedError struct {
	Raw string
	Err error
}

func (e MalformedError) Error() string {
	return fmt.Sprintf("malformed generation response: %v", e.Err)
}

func (e MalformedError) Unwrap() error { return e.Err }

// Gateway is the single integration point with the generation service.
type Gateway struct {
	complete CompleteFunc
}

// NewGateway wraps the supplied transport.
func NewGateway(complete CompleteFunc) *Gateway {
	return &Gateway{complete: complete}
}

// Generate runs one call configured by cfg. When cfg demands JSON output the
// reply is parsed and a parse failure surfaces as MalformedError rather than
// an empty document.
func (g *Gateway) Generate(ctx context.Context, cfg prompts.StageConfig, userMessage string) (Result, error) {
	req := Request{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		System:      cfg.SystemPrompt,
		User:        userMessage,
		JSONMode:    cfg.ResponseFormat == prompts.ResponseFormatJSON,
	}
	text, err := g.complete(ctx, req)
	if err != nil {
		return Result{}, GenerationError{Err: err}
	}
	res := Result{Text: text}
	if req.JSONMode {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return Result{}, MalformedError{Raw: text, Err: err}
		}
		res.JSON = obj
	}
	return res, nil
}
