// Command mockjira serves a fake Atlassian site for local development of ricefwboard.
//
// Point the service at it with jira.baseURL "http://localhost:8081/?site={domain}".
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gi8lino/ricefwboard/internal/jiramock"
	"github.com/gi8lino/ricefwboard/internal/logging"
	"github.com/gi8lino/ricefwboard/internal/middleware"
	"github.com/gi8lino/ricefwboard/internal/server"

	"github.com/containeroo/tinyflags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		seedPath    string
		listenAddr  string
		randomDelay bool
		debug       bool
	)
	tf := tinyflags.NewFlagSet("mockjira", tinyflags.ContinueOnError)
	tf.StringVar(&seedPath, "seed", "", "YAML seed with projects, issues and credentials (default: built-in demo site)").
		Placeholder("PATH").
		Value()
	tf.StringVar(&listenAddr, "listen-address", ":8081", "HTTP listen address").Placeholder("ADDR:PORT").Value()
	tf.BoolVar(&randomDelay, "random-delay", false, "Delay every response by 200ms to 1s").Value()
	tf.BoolVar(&debug, "debug", false, "Log every request").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	if err := tf.Parse(args); err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(os.Stdout, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	logger := logging.SetupLogger(logging.LogFormat(*logFormat), debug, os.Stdout)

	seed := jiramock.DemoSeed()
	if seedPath != "" {
		s, err := jiramock.LoadSeed(seedPath)
		if err != nil {
			return err
		}
		seed = s
	}
	logger.Info("mock site ready",
		"projects", len(seed.Projects),
		"issues", len(seed.Issues),
		"email", seed.Email,
	)

	var h http.Handler = jiramock.New(seed).Handler()
	if randomDelay {
		h = withRandomDelay(h, 200*time.Millisecond, time.Second)
	}
	if debug {
		h = middleware.Chain(h, middleware.LoggingMiddleware(logger))
	}

	return server.RunHTTPServer(ctx, h, listenAddr, logger)
}

// withRandomDelay sleeps a random duration in [lo, hi) before serving.
func withRandomDelay(next http.Handler, lo, hi time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(lo + rand.N(hi-lo)):
		case <-r.Context().Done():
			return
		}
		next.ServeHTTP(w, r)
	})
}
