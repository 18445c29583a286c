package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/models"

	"github.com/stretchr/testify/assert"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpiredSessions(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 2, p.err
}

func TestJanitor(t *testing.T) {
	t.Parallel()

	t.Run("sweeps until canceled", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		p := &countingPurger{}
		j := &janitor{
			sessions: p,
			pages:    cache.NewMemCache[models.ProjectPage](),
			logger:   slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		}

		ctx, cancel := context.WithTimeout(t.Context(), 60*time.Millisecond)
		defer cancel()
		j.run(ctx, 10*time.Millisecond)

		assert.GreaterOrEqual(t, p.calls.Load(), int32(2))
		assert.Contains(t, logs.String(), "janitor sweep")
	})

	t.Run("logs purge failures", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		j := &janitor{
			sessions: &countingPurger{err: errors.New("disk I/O error")},
			logger:   slog.New(slog.NewTextHandler(&logs, nil)),
		}
		j.sweep(t.Context())

		assert.Contains(t, logs.String(), "disk I/O error")
	})
}
