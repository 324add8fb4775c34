// Package config reads the server's redis.conf-style configuration
// file. Command-line overrides are applied by cmd/server.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults mirror the values the spec calls out explicitly.
const (
	DefaultPort             = 6379
	DefaultHost             = "0.0.0.0"
	DefaultExpireIntervalMs = 1000
	DefaultMaxBulkBytes     = 512 * 1024
	DefaultMaxArrayLen      = 1_000_000
)

// Config holds the tunables the core listens to. Everything else
// (persistence, auth, multi-db) is out of scope and has no field here.
type Config struct {
	Host string
	Port int

	// ExpireIntervalMs is the Expirer's sweep period.
	ExpireIntervalMs int

	// MaxBulkBytes and MaxArrayLen bound the codec's backpressure, per
	// the suggested limits in the concurrency & resource model section.
	MaxBulkBytes int
	MaxArrayLen  int

	filepath string
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Host:             DefaultHost,
		Port:             DefaultPort,
		ExpireIntervalMs: DefaultExpireIntervalMs,
		MaxBulkBytes:     DefaultMaxBulkBytes,
		MaxArrayLen:      DefaultMaxArrayLen,
	}
}

// Load reads a redis.conf-style file (one directive per line, "#"
// comments, blank lines ignored) into a fresh Config. A file that
// cannot be opened (a missing one included) is not an error: Load
// returns the defaults and logs no warning.
//
// Supported directives:
//
//	host <addr>
//	port <n>
//	expire-interval-ms <n>
//	max-bulk-bytes <n>
//	max-array-len <n>
func Load(filename string) (*Config, error) {
	cfg := New()

	f, err := os.Open(filename)
	if err != nil {
		return cfg, nil
	}
	defer f.Close()

	cfg.filepath = filename

	s := bufio.NewScanner(f)
	lineNo := 0
	for s.Scan() {
		lineNo++
		if err := parseLine(s.Text(), cfg); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return cfg, nil
}

func parseLine(line string, cfg *Config) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Fields(line)
	directive := strings.ToLower(fields[0])
	args := fields[1:]

	switch directive {
	case "host":
		if len(args) != 1 {
			return fmt.Errorf("host requires exactly one argument")
		}
		cfg.Host = args[0]
	case "port":
		n, err := requireInt(directive, args)
		if err != nil {
			return err
		}
		cfg.Port = n
	case "expire-interval-ms":
		n, err := requireInt(directive, args)
		if err != nil {
			return err
		}
		cfg.ExpireIntervalMs = n
	case "max-bulk-bytes":
		n, err := requireInt(directive, args)
		if err != nil {
			return err
		}
		cfg.MaxBulkBytes = n
	case "max-array-len":
		n, err := requireInt(directive, args)
		if err != nil {
			return err
		}
		cfg.MaxArrayLen = n
	default:
		return fmt.Errorf("unknown directive %q", directive)
	}
	return nil
}

func requireInt(directive string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s requires exactly one integer argument", directive)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", directive, err)
	}
	return n, nil
}

// Addr returns the listener address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Filepath returns the config file path actually loaded, or "" if
// defaults were used (no file found).
func (c *Config) Filepath() string {
	return c.filepath
}
