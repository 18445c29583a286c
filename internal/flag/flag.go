package flag

import (
	"io"
	"net"
	"path/filepath"

	"github.com/containeroo/tinyflags"
	"github.com/gi8lino/ricefwboard/internal/logging"
	"github.com/gi8lino/ricefwboard/internal/utils"
)

// Config aggregates CLI flags after parsing.
type Config struct {
	ListenAddr  string            // HTTP bind address (e.g. ":8080")
	Debug       bool              // Enables debug logging
	LogFormat   logging.LogFormat // Log output format (text or json)
	Config      string            // Path to config file, empty for built-in defaults
	Database    string            // SQLite DSN, overrides the config file
	RoutePrefix string            // Canonical path prefix ("" or "/board")
}

// ParseArgs parses CLI arguments into Config, handling version/help flags.
func ParseArgs(version string, args []string, out io.Writer, getEnv func(string) string) (Config, error) {
	var cfg Config
	tf := tinyflags.NewFlagSet("ricefwboard", tinyflags.ContinueOnError)
	tf.Version(version)
	tf.SetGetEnvFn(getEnv)
	tf.EnvPrefix("RICEFWBOARD")
	tf.SetOutput(out)

	// Server
	tf.StringVar(&cfg.Config, "config", "", "Path to config file").
		Finalize(absPath).
		Placeholder("PATH").
		Value()

	tf.StringVar(&cfg.Database, "database", "", "SQLite database file (overrides config)").
		Finalize(absPath).
		Placeholder("PATH").
		Value()

	route := tf.String("route-prefix", "", "Path prefix to mount the app (e.g., /board). Empty = root.").
		Finalize(func(input string) string {
			return utils.NormalizeRoutePrefix(input)
		}).
		Placeholder("PATH").
		Value()

	listenAddr := tf.TCPAddr("listen-address", &net.TCPAddr{IP: nil, Port: 8080}, "HTTP server listen address").
		Placeholder("ADDR:PORT").
		Value()

	// Logging
	tf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	// Parse
	if err := tf.Parse(args); err != nil {
		return Config{}, err
	}

	// Post-parse
	cfg.LogFormat = logging.LogFormat(*logFormat)
	cfg.ListenAddr = (*listenAddr).String()
	cfg.RoutePrefix = *route

	return cfg, nil
}

// absPath makes non-empty relative paths absolute. ":memory:" is kept.
func absPath(s string) string {
	if s == "" || s == ":memory:" || filepath.IsAbs(s) {
		return s
	}
	path, err := filepath.Abs(s)
	if err != nil {
		return s
	}
	return path
}
