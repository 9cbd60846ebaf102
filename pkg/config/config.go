// Package config resolves the process configuration once at start.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultOllamaHost is the daemon address used when nothing else is set.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// Config is immutable after Load; pass it by value.
type Config struct {
	// OllamaHost is the daemon base URL.
	OllamaHost string `yaml:"ollama_host"`
	// OllamaBin is the CLI executable for process-backed operations.
	OllamaBin string `yaml:"ollama_bin"`
	// DefaultTimeout bounds daemon calls without a per-call timeout.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// MetricsAddr enables the /metrics listener when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`
	Debug       bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OllamaHost:     DefaultOllamaHost,
		OllamaBin:      "ollama",
		DefaultTimeout: 60 * time.Second,
	}
}

// Getenv looks up an environment variable; os.LookupEnv in production.
type Getenv func(key string) (string, bool)

// Load resolves defaults, then the YAML file at path (if non-empty), then
// environment variables:
//
//	OLLAMA_HOST              – daemon base URL (host:port accepted)
//	OLLAMA_BIN               – CLI executable
//	OLLAMA_MCP_TIMEOUT_MS    – default daemon timeout in milliseconds
//	OLLAMA_MCP_METRICS_ADDR  – metrics listen address
func Load(path string, getenv Getenv) (Config, error) {
	cfg := Default()
	if getenv == nil {
		getenv = os.LookupEnv
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v, ok := getenv("OLLAMA_HOST"); ok && v != "" {
		cfg.OllamaHost = v
	}
	if v, ok := getenv("OLLAMA_BIN"); ok && v != "" {
		cfg.OllamaBin = v
	}
	if v, ok := getenv("OLLAMA_MCP_TIMEOUT_MS"); ok && v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil || ms <= 0 {
			return Config{}, fmt.Errorf("OLLAMA_MCP_TIMEOUT_MS must be a positive integer, got %q", v)
		}
		cfg.DefaultTimeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := getenv("OLLAMA_MCP_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}

	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	host, err := NormalizeHost(c.OllamaHost)
	if err != nil {
		return Config{}, err
	}
	c.OllamaHost = host
	if c.OllamaBin == "" {
		c.OllamaBin = "ollama"
	}
	if c.DefaultTimeout <= 0 {
		return Config{}, fmt.Errorf("default_timeout must be positive")
	}
	return c, nil
}

// NormalizeHost accepts a full URL or a bare host[:port], as the ollama CLI
// does, and returns a base URL without a trailing slash.
func NormalizeHost(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOllamaHost, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid ollama host %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid ollama host %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid ollama host %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// LoadDotEnv exports KEY=VALUE pairs from path for keys the environment
// does not define yet. An optional "export " prefix and matching quotes
// around the value are stripped. A missing file is not an error; a line
// without "=" or with an empty key is.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("%s:%d: expected KEY=VALUE", path, n)
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, unquote(strings.TrimSpace(val))); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
