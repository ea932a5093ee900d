package capability

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageInspector(t *testing.T) {
	w := newWorkspace(t, 1<<20)
	file, err := os.Create(filepath.Join(w.Root(), "chart.png"))
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = file.Close()

	out, err := NewImageInspector(w).Analyze(context.Background(), "chart.png", "what is this?")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "png image, 4x3 pixels") {
		t.Fatalf("unexpected description %q", out)
	}

	writeFixture(t, w.Root(), "notes.txt", "not an image")
	if _, err := NewImageInspector(w).Analyze(context.Background(), "notes.txt", ""); err == nil {
		t.Fatalf("expected error for non-image")
	}
}
