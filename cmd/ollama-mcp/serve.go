package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ormasoftchile/ollama-mcp/pkg/backend"
	"github.com/ormasoftchile/ollama-mcp/pkg/catalog"
	"github.com/ormasoftchile/ollama-mcp/pkg/chat"
	"github.com/ormasoftchile/ollama-mcp/pkg/config"
	"github.com/ormasoftchile/ollama-mcp/pkg/dispatch"
	"github.com/ormasoftchile/ollama-mcp/pkg/logging"
	omcp "github.com/ormasoftchile/ollama-mcp/pkg/mcp"
	"github.com/ormasoftchile/ollama-mcp/pkg/metrics"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	d, err := newDispatcher(cfg, m, log)
	if err != nil {
		return err
	}
	s := omcp.NewServer(version, d, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, log); err != nil {
				log.Errorw("metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(logging.StdLogger(log))

	log.Infow("ollama-mcp started",
		"version", version,
		"ollama_host", cfg.OllamaHost,
		"ollama_bin", cfg.OllamaBin,
		"default_timeout", cfg.DefaultTimeout.String(),
	)
	err = stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		log.Errorw("stdio server stopped", "error", err)
		return err
	}
	log.Infow("ollama-mcp stopped")
	return nil
}

// newDispatcher wires both backends from the resolved configuration.
func newDispatcher(cfg config.Config, m *metrics.Metrics, log *zap.SugaredLogger) (*dispatch.Dispatcher, error) {
	cat, err := catalog.New()
	if err != nil {
		return nil, err
	}
	web := backend.NewHTTPInvoker(cfg.OllamaHost, cfg.DefaultTimeout)
	return &dispatch.Dispatcher{
		Catalog: cat,
		Process: backend.NewProcessInvoker(cfg.OllamaBin),
		HTTP:    web,
		Chat:    chat.New(web),
		Log:     log,
		Metrics: m,
	}, nil
}
