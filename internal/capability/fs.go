package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrOutsideWorkspace = errors.New("path must stay within the workspace")
	ErrDenied           = errors.New("path is denylisted")
	ErrTooLarge         = errors.New("file exceeds the size limit")
)

// Workspace confines file access to one root directory.
type Workspace struct {
	root         string
	maxFileBytes int64
}

// NewWorkspace resolves root to an absolute directory.
func NewWorkspace(root string, maxFileBytes int64) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Workspace{root: abs, maxFileBytes: maxFileBytes}, nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a workspace-relative or absolute path inside the workspace
// to an absolute path.
func (w *Workspace) Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "."
	}
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(w.root, path)
	}
	abs = filepath.Clean(abs)
	target, ok := resolveExisting(abs)
	if !ok || !w.contains(abs) || !w.contains(target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	rel, _ := filepath.Rel(w.root, abs)
	if rel != "." && IsDenylisted(rel) {
		return "", fmt.Errorf("%w: %s", ErrDenied, path)
	}
	return abs, nil
}

func (w *Workspace) contains(abs string) bool {
	rel, err := filepath.Rel(w.root, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of abs
// and re-attaches the missing tail, so a path not created yet is judged by
// where its parent directories really are. A dangling link cannot be
// resolved and reports false.
func resolveExisting(abs string) (string, bool) {
	tail := ""
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, tail), true
		}
		if _, err := os.Lstat(dir); err == nil {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, true
		}
		tail = filepath.Join(filepath.Base(dir), tail)
		dir = parent
	}
}

func (w *Workspace) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := w.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if w.maxFileBytes > 0 && info.Size() > w.maxFileBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), w.maxFileBytes)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *Workspace) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := w.Resolve(path)
	if err != nil {
		return err
	}
	if abs == w.root {
		return fmt.Errorf("cannot write to the workspace root")
	}
	if w.maxFileBytes > 0 && int64(len(content)) > w.maxFileBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(content), w.maxFileBytes)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(content), 0o644)
}

// ListFiles returns the sorted entries of a directory. Directories carry a
// trailing slash; denylisted entries are hidden.
func (w *Workspace) ListFiles(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		rel, _ := filepath.Rel(w.root, filepath.Join(abs, entry.Name()))
		if IsDenylisted(rel) {
			continue
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
