// Package main provides the ollama-mcp binary, an MCP server exposing a local
// ollama runtime to AI agents.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/config"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	flagConfig      string
	flagOllamaHost  string
	flagOllamaBin   string
	flagTimeout     time.Duration
	flagMetricsAddr string
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:   "ollama-mcp",
	Short: "MCP server for a local ollama runtime",
	Long: "ollama-mcp exposes model management, generation and chat completion of a local ollama\n" +
		"installation as MCP tools over stdio.",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the advertised tools and their input schemas as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.New()
		if err != nil {
			return err
		}
		data, err := c.ExportJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ollama-mcp %s (%s)\n", version, commit)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagOllamaHost, "ollama-host", "", "ollama daemon base URL (overrides OLLAMA_HOST)")
	pf.StringVar(&flagOllamaBin, "ollama-bin", "", "ollama executable (overrides OLLAMA_BIN)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Default timeout for daemon calls (overrides OLLAMA_MCP_TIMEOUT_MS)")
	pf.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve /metrics and /ping on this address (overrides OLLAMA_MCP_METRICS_ADDR)")
	pf.BoolVar(&flagDebug, "debug", false, "Development logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers flags that were set explicitly over file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig, nil)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("ollama-host") {
		host, err := config.NormalizeHost(flagOllamaHost)
		if err != nil {
			return config.Config{}, err
		}
		cfg.OllamaHost = host
	}
	if flags.Changed("ollama-bin") && flagOllamaBin != "" {
		cfg.OllamaBin = flagOllamaBin
	}
	if flags.Changed("timeout") {
		if flagTimeout <= 0 {
			return config.Config{}, fmt.Errorf("--timeout must be positive")
		}
		cfg.DefaultTimeout = flagTimeout
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = flagMetricsAddr
	}
	if flags.Changed("debug") {
		cfg.Debug = flagDebug
	}
	return cfg, nil
}
