package capability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newWorkspace(t *testing.T, maxFileBytes int64) *Workspace {
	t.Helper()
	w, err := NewWorkspace(t.TempDir(), maxFileBytes)
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	return w
}

func TestWorkspaceReadWrite(t *testing.T) {
	w := newWorkspace(t, 1024)
	ctx := context.Background()

	if err := w.WriteFile(ctx, "notes/today.md", "# Today\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, err := w.ReadFile(ctx, "notes/today.md")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "# Today\n" {
		t.Fatalf("unexpected content %q", content)
	}
	if _, err := w.ReadFile(ctx, "notes"); err == nil {
		t.Fatalf("reading a directory should fail")
	}
}

func TestWorkspaceConfinement(t *testing.T) {
	w := newWorkspace(t, 1024)
	ctx := context.Background()

	for _, path := range []string{"../escape.txt", "/etc/passwd", "a/../../b"} {
		if _, err := w.ReadFile(ctx, path); !errors.Is(err, ErrOutsideWorkspace) {
			t.Fatalf("%s: expected ErrOutsideWorkspace, got %v", path, err)
		}
	}
	if err := w.WriteFile(ctx, "../escape.txt", "x"); !errors.Is(err, ErrOutsideWorkspace) {
		t.Fatalf("write outside workspace: %v", err)
	}

	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(w.Root(), "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if _, err := w.ReadFile(ctx, "link/secret.txt"); !errors.Is(err, ErrOutsideWorkspace) {
		t.Fatalf("symlink escape: expected ErrOutsideWorkspace, got %v", err)
	}
}

func TestWorkspaceWriteThroughSymlinkedDir(t *testing.T) {
	w := newWorkspace(t, 1024)
	ctx := context.Background()

	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(w.Root(), "out")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	for _, path := range []string{"out/escaped.txt", "out/deeper/escaped.txt"} {
		if err := w.WriteFile(ctx, path, "pwned"); !errors.Is(err, ErrOutsideWorkspace) {
			t.Fatalf("%s: expected ErrOutsideWorkspace, got %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outside, "escaped.txt")); !os.IsNotExist(err) {
		t.Fatalf("file was written outside the workspace: %v", err)
	}

	if err := os.Symlink(filepath.Join(outside, "missing"), filepath.Join(w.Root(), "dangling")); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := w.WriteFile(ctx, "dangling", "pwned"); !errors.Is(err, ErrOutsideWorkspace) {
		t.Fatalf("dangling link: expected ErrOutsideWorkspace, got %v", err)
	}

	if err := w.WriteFile(ctx, "fresh/dir/new.txt", "ok"); err != nil {
		t.Fatalf("new nested path inside workspace: %v", err)
	}
}

func TestWorkspaceDenylist(t *testing.T) {
	w := newWorkspace(t, 1024)
	ctx := context.Background()
	if err := os.WriteFile(filepath.Join(w.Root(), ".env"), []byte("TOKEN=x"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if _, err := w.ReadFile(ctx, ".env"); !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
	if err := w.WriteFile(ctx, "keys/server.pem", "x"); !errors.Is(err, ErrDenied) {
		t.Fatalf("expected ErrDenied, got %v", err)
	}
}

func TestWorkspaceSizeLimit(t *testing.T) {
	w := newWorkspace(t, 8)
	ctx := context.Background()
	if err := w.WriteFile(ctx, "big.txt", strings.Repeat("x", 9)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge on write, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(w.Root(), "big.txt"), []byte(strings.Repeat("x", 9)), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if _, err := w.ReadFile(ctx, "big.txt"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge on read, got %v", err)
	}
}

func TestWorkspaceListFiles(t *testing.T) {
	w := newWorkspace(t, 1024)
	ctx := context.Background()
	for _, name := range []string{"b.txt", "a.txt", ".env", "id_rsa"} {
		if err := os.WriteFile(filepath.Join(w.Root(), name), []byte("x"), 0o644); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(w.Root(), "docs"), 0o755); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	entries, err := w.ListFiles(ctx, ".")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := strings.Join(entries, ","); got != "a.txt,b.txt,docs/" {
		t.Fatalf("unexpected entries %s", got)
	}
	entries, err = w.ListFiles(ctx, "docs")
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty docs dir, got %v, %v", entries, err)
	}
}

func TestIsDenylisted(t *testing.T) {
	denied := []string{".env", ".env.local", "certs/server.pem", "id_rsa.pub", "home/.ssh/config", ".git/config", ".aws/credentials", "vault.kdbx"}
	for _, path := range denied {
		if !IsDenylisted(path) {
			t.Fatalf("expected %s to be denylisted", path)
		}
	}
	for _, path := range []string{"README.md", "src/main.go", "environment.txt", "gitignore"} {
		if IsDenylisted(path) {
			t.Fatalf("expected %s to be allowed", path)
		}
	}
}
