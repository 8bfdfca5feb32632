// Package provider defines the contract for external text-to-music services.
package provider

import (
	"context"
	"fmt"
)

// Provider turns a text prompt into raw audio bytes. Implementations make a
// single attempt per call; retry and fallthrough policy belongs to the
// generation orchestrator.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Error is the failure of a provider call: a non-success network response,
// a timeout or a malformed payload.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	body := e.Body
	if len(body) > 100 {
		body = body[:100] + "..."
	}
	return fmt.Sprintf("provider: status %d: %s", e.Status, body)
}
