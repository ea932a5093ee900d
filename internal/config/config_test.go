package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"TOOLCALL_API_KEY", "TOOLCALL_MODEL", "TOOLCALL_SEARCH_PROVIDER", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "EXA_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("model", DefaultModel, "")
	cmd.Flags().String("timeout", DefaultTimeout.String(), "")
	cmd.Flags().StringSlice("disable", nil, "")
	cmd.Flags().String("search", DefaultSearchProvider, "")
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != DefaultModel || cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("unexpected model settings %+v", cfg)
	}
	if cfg.Timeout != DefaultTimeout || cfg.ExecTimeout != DefaultExecTimeout {
		t.Fatalf("unexpected timeouts %v %v", cfg.Timeout, cfg.ExecTimeout)
	}
	if cfg.Search.Provider != DefaultSearchProvider || cfg.Search.MaxResults != DefaultSearchResults {
		t.Fatalf("unexpected search %+v", cfg.Search)
	}
	if cfg.Limits.OutputMaxBytes != DefaultOutputMaxBytes || cfg.Limits.MaxFileBytes != DefaultMaxFileBytes {
		t.Fatalf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Workspace != "." || len(cfg.Disable) != 0 {
		t.Fatalf("unexpected workspace settings %+v", cfg)
	}
}

func TestLoadEnvAndFallbackKeys(t *testing.T) {
	isolate(t)
	t.Setenv("TOOLCALL_MODEL", "anthropic/claude-3-haiku")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("EXA_API_KEY", "exa-key")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "anthropic/claude-3-haiku" {
		t.Fatalf("env model not applied: %s", cfg.Model)
	}
	if cfg.APIKey != "or-key" || cfg.Search.APIKey != "exa-key" {
		t.Fatalf("fallback keys not applied: %q %q", cfg.APIKey, cfg.Search.APIKey)
	}

	t.Setenv("TOOLCALL_API_KEY", "own-key")
	cfg, err = Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "own-key" {
		t.Fatalf("prefixed key should win: %q", cfg.APIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "toolcall", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "model: openai/gpt-4o\nexec_timeout: 5s\ndisable: [runPython, writeFile]\nlimits:\n  output_max_bytes: 2048\nsearch:\n  provider: none\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "openai/gpt-4o" || cfg.ExecTimeout != 5*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.Disable) != 2 || cfg.Disable[0] != "runPython" {
		t.Fatalf("unexpected disable list %v", cfg.Disable)
	}
	if cfg.Limits.OutputMaxBytes != 2048 || cfg.Limits.MaxFileBytes != DefaultMaxFileBytes {
		t.Fatalf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Search.Provider != "none" {
		t.Fatalf("unexpected provider %q", cfg.Search.Provider)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TOOLCALL_MODEL", "from-env")
	cmd := testCommand()
	if err := cmd.Flags().Parse([]string{"--model", "from-flag", "--timeout", "90s", "--disable", "runPython,executeSQL"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "from-flag" || cfg.Timeout != 90*time.Second {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if len(cfg.Disable) != 2 || cfg.Disable[1] != "executeSQL" {
		t.Fatalf("unexpected disable list %v", cfg.Disable)
	}
}

func TestLoadRejectsUnknownSearchProvider(t *testing.T) {
	isolate(t)
	t.Setenv("TOOLCALL_SEARCH_PROVIDER", "bing")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
