package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailable(t *testing.T) {
	t.Parallel()

	var a Assistant = Unavailable{}

	t.Run("not implemented", func(t *testing.T) {
		t.Parallel()

		_, err := a.Ask(context.Background(), "ACME", "which interfaces are open?")
		assert.ErrorIs(t, err, ErrNotImplemented)
	})

	t.Run("empty prompt", func(t *testing.T) {
		t.Parallel()

		_, err := a.Ask(context.Background(), "ACME", "  ")
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := a.Ask(ctx, "ACME", "hi")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
