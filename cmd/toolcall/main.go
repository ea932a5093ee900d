package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"toolcall/internal/capability"
	"toolcall/internal/config"
	"toolcall/internal/events"
	"toolcall/internal/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "toolcall",
		Short:         "toolcall - extract and dispatch tool calls from model output",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("model", config.DefaultModel, "Model name")
	flags.String("base-url", config.DefaultBaseURL, "OpenAI-compatible API base URL")
	flags.String("timeout", config.DefaultTimeout.String(), "Timeout (e.g. 60s)")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("json", false, "Output JSON only")
	flags.String("workspace", ".", "Directory file tools are confined to")
	flags.String("sqlite", "", "SQLite database for execute_sql (default in-memory)")
	flags.String("python", config.DefaultPythonBin, "Python interpreter")
	flags.String("node", config.DefaultNodeBin, "Node.js interpreter")
	flags.String("exec-timeout", config.DefaultExecTimeout.String(), "Timeout for run_python and run_javascript")
	flags.String("search", config.DefaultSearchProvider, "Web search provider (exa or none)")
	flags.StringSlice("disable", nil, "Capability to leave unavailable (repeatable)")

	cmd.AddCommand(
		newCatalogCmd(),
		newExtractCmd(),
		newRunCmd(),
		newCalcCmd(),
		newAskCmd(),
	)
	return cmd
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

// session bundles what every dispatching subcommand needs.
type session struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *tools.Registry
	closers  []func() error
}

func openSession(cmd *cobra.Command, sink events.Sink) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	logger := buildLogger(cfg.Verbose)
	s := &session{cfg: cfg, logger: logger}

	ec, closeCaps, err := capability.Build(capability.Options{
		Workspace:      cfg.Workspace,
		SQLitePath:     cfg.SQLitePath,
		PythonBin:      cfg.PythonBin,
		NodeBin:        cfg.NodeBin,
		ExecTimeout:    cfg.ExecTimeout,
		MaxFileBytes:   int64(cfg.Limits.MaxFileBytes),
		MaxOutputBytes: cfg.Limits.OutputMaxBytes,
		MaxRows:        cfg.Limits.MaxResults,
		Disable:        cfg.Disable,
		Logger:         logger,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	s.closers = append(s.closers, closeCaps)

	opts := []tools.Option{
		tools.WithLogger(logger),
		tools.WithEventSink(sink),
		tools.WithMaxOutputBytes(cfg.Limits.OutputMaxBytes),
	}
	if searcher := buildSearcher(cfg); searcher != nil {
		opts = append(opts, tools.WithSearcher(searcher))
	}
	registry, err := tools.NewRegistry(nil, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	registry.SetContext(ec)
	s.registry = registry
	return s, nil
}

func buildSearcher(cfg config.Config) tools.Searcher {
	for _, name := range cfg.Disable {
		if strings.EqualFold(name, tools.CapWebSearch) {
			return nil
		}
	}
	if cfg.Search.Provider != config.DefaultSearchProvider || cfg.Search.APIKey == "" {
		return nil
	}
	exa := tools.NewExaSearcher(cfg.Search.APIKey, cfg.Timeout)
	return tools.SearchFunc(func(ctx context.Context, query string, limit int) ([]tools.SearchResult, error) {
		return exa.Search(ctx, query, min(limit, cfg.Search.MaxResults))
	})
}

func (s *session) Close() {
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			s.logger.Warn("failed to release capability", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}
