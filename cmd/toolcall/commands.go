package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"toolcall/internal/agent"
	"toolcall/internal/calc"
	"toolcall/internal/config"
	"toolcall/internal/llm"
	"toolcall/internal/render"
	"toolcall/internal/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const mockEnv = "TOOLCALL_MOCK_LLM"

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the tool catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			catalog := tools.DefaultCatalog()
			out := cmd.OutOrStdout()
			if !cfg.JSON {
				fmt.Fprintln(out, catalog.PromptSummary())
				return nil
			}
			type entry struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				Parameters  any    `json:"parameters"`
			}
			var entries []entry
			for _, def := range catalog.List() {
				entries = append(entries, entry{Name: def.Name, Description: def.Description, Parameters: def.JSONSchema()})
			}
			return writeJSON(out, entries)
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract tool calls from model output (reads stdin without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			calls := tools.NewExtractor(tools.DefaultCatalog()).Extract(text)
			if calls == nil {
				calls = []tools.ToolCall{}
			}
			return writeJSON(cmd.OutOrStdout(), calls)
		},
	}
}

type dispatched struct {
	Call   tools.ToolCall   `json:"call"`
	Result tools.ToolResult `json:"result"`
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [text]",
		Short: "Extract tool calls from model output and execute them",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := commandContext(s.cfg)
			defer cancel()

			calls := s.registry.Extract(text)
			results := s.registry.ExecuteAll(ctx, calls)
			out := cmd.OutOrStdout()
			if s.cfg.JSON {
				records := make([]dispatched, len(calls))
				for i := range calls {
					records[i] = dispatched{Call: calls[i], Result: results[i]}
				}
				return writeJSON(out, records)
			}
			if len(calls) == 0 {
				fmt.Fprintln(out, "no tool calls found")
				return nil
			}
			for i, call := range calls {
				status := "ok"
				if !results[i].Success {
					status = "err"
				}
				fmt.Fprintf(out, "[%s %s]\n%s\n", call.Tool, status, results[i].Output)
			}
			return nil
		},
	}
}

func newCalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calc <expression>",
		Short: "Evaluate an arithmetic expression with the calculate tool's evaluator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := calc.Evaluate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), calc.Format(value))
			return nil
		},
	}
}

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the model one question and dispatch the tool calls it makes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			nativeTools, _ := cmd.Flags().GetBool("native-tools")
			noFollowUp, _ := cmd.Flags().GetBool("no-follow-up")
			saveRun, _ := cmd.Flags().GetBool("save-run")

			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			mockMode := os.Getenv(mockEnv) == "1"
			if cfg.APIKey == "" && !mockMode {
				return errors.New("an API key is required: set TOOLCALL_API_KEY, OPENROUTER_API_KEY or OPENAI_API_KEY")
			}

			var renderer render.Renderer
			if !cfg.JSON {
				renderer = render.NewStdoutRenderer(cmd.OutOrStdout(), cfg.Verbose, false, cfg.Verbose, true)
			}
			s, err := openSession(cmd, render.Sink(renderer))
			if err != nil {
				return err
			}
			defer s.Close()

			var client llm.Client
			if mockMode {
				client = llm.DemoMockClient()
			} else {
				client = llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
			}

			ctx, cancel := commandContext(cfg)
			defer cancel()

			ag := agent.NewAgent(client, s.registry, renderer, s.logger, agent.Options{
				Model:       cfg.Model,
				NativeTools: nativeTools,
				FollowUp:    !noFollowUp,
			})
			result, runErr := ag.Turn(ctx, question)
			if renderer != nil {
				_ = renderer.Close()
			}
			if saveRun {
				persistRun(s.logger, result)
			}
			if cfg.JSON {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	cmd.Flags().Bool("native-tools", false, "Also offer the catalog as native function tools")
	cmd.Flags().Bool("no-follow-up", false, "Skip the second model call that summarizes tool results")
	cmd.Flags().Bool("save-run", false, "Save the turn as JSON under the user data directory")
	return cmd
}

func commandContext(cfg config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no input: pass text as an argument or on stdin")
	}
	return string(data), nil
}

func writeJSON(w io.Writer, value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func persistRun(logger *zap.Logger, result agent.TurnResult) {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("failed to get home dir", zap.Error(err))
		return
	}
	path := filepath.Join(home, ".local", "share", "toolcall", "runs")
	if err := os.MkdirAll(path, 0o755); err != nil {
		logger.Warn("failed to create run directory", zap.Error(err))
		return
	}
	file := filepath.Join(path, result.RunID+".json")
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Warn("failed to marshal run log", zap.Error(err))
		return
	}
	if err := os.WriteFile(file, payload, 0o600); err != nil {
		logger.Warn("failed to write run log", zap.Error(err))
	}
}
