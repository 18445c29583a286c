// Package assistant defines the chat assistant of the board. No backend
// exists yet, so the only implementation reports that.
package assistant

import (
	"context"
	"errors"
	"strings"
)

// ErrNotImplemented is returned until an assistant backend exists.
var ErrNotImplemented = errors.New("assistant is not implemented yet")

// ErrEmptyPrompt is returned for blank questions.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Assistant answers free-text questions about a project.
type Assistant interface {
	Ask(ctx context.Context, projectKey, prompt string) (string, error)
}

// Unavailable is the placeholder assistant.
type Unavailable struct{}

// Ask validates the prompt and always fails with ErrNotImplemented.
func (Unavailable) Ask(ctx context.Context, projectKey, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	return "", ErrNotImplemented
}
