package capability

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// ImageInspector reports format and dimensions of workspace images. It is
// the fallback when no vision model is configured.
type ImageInspector struct {
	workspace *Workspace
}

func NewImageInspector(w *Workspace) *ImageInspector {
	return &ImageInspector{workspace: w}
}

func (i *ImageInspector) Analyze(ctx context.Context, path, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := i.workspace.Resolve(path)
	if err != nil {
		return "", err
	}
	file, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return "", fmt.Errorf("%s: not a supported image: %w", path, err)
	}
	return fmt.Sprintf("%s: %s image, %dx%d pixels, %d bytes. No vision model is configured, so only metadata is available.",
		path, format, cfg.Width, cfg.Height, info.Size()), nil
}
