package capability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"toolcall/internal/util"
)

// Runner executes source code with an interpreter's inline-eval flag.
type Runner struct {
	bin      string
	flag     string
	dir      string
	timeout  time.Duration
	maxBytes int
}

// NewPythonRunner runs code with `bin -c`.
func NewPythonRunner(bin, dir string, timeout time.Duration, maxBytes int) *Runner {
	return &Runner{bin: bin, flag: "-c", dir: dir, timeout: timeout, maxBytes: maxBytes}
}

// NewNodeRunner runs code with `bin -e`.
func NewNodeRunner(bin, dir string, timeout time.Duration, maxBytes int) *Runner {
	return &Runner{bin: bin, flag: "-e", dir: dir, timeout: timeout, maxBytes: maxBytes}
}

// Available reports whether the interpreter is on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.bin)
	return err == nil
}

// Run executes code and returns stdout, followed by stderr when present.
// A non-zero exit is an error carrying the stderr tail.
func (r *Runner) Run(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", errors.New("code is required")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.bin, r.flag, code)
	cmd.Dir = r.dir
	cmd.Env = minimalEnv()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	outStr := util.RedactSecrets(stdout.String())
	errStr := util.RedactSecrets(stderr.String())
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s timed out after %s", r.bin, r.timeout)
		}
		if exitErr := (&exec.ExitError{}); errors.As(err, &exitErr) {
			tail := util.Preview(lastLines(errStr, 8), 8, 2000)
			return "", fmt.Errorf("exit code %d: %s", exitErr.ExitCode(), strings.TrimSpace(tail))
		}
		return "", err
	}

	out := outStr
	if strings.TrimSpace(errStr) != "" {
		out = strings.TrimRight(out, "\n") + "\nstderr:\n" + errStr
	}
	capped, _ := util.CapOutput(out, r.maxBytes)
	return capped, nil
}

func minimalEnv() []string {
	env := []string{"PYTHONIOENCODING=utf-8", "PYTHONDONTWRITEBYTECODE=1"}
	for _, key := range []string{"PATH", "HOME", "LANG", "TMPDIR", "SYSTEMROOT"} {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+value)
		}
	}
	return env
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
