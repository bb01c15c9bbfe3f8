package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
)

type Options struct {
	ImagePath  string
	HTMLPath   string
	Scale      float64
	Quality    int
	CreateDirs bool
	Open       bool
}

// Renderer writes a figure to disk and optionally shows it.
type Renderer struct {
	opts Options
	open func(path string) error
}

func NewRenderer(opts Options) *Renderer {
	if opts.Scale <= 0 {
		opts.Scale = 3
	}
	if opts.Quality <= 0 {
		opts.Quality = 90
	}
	return &Renderer{opts: opts, open: browser.OpenFile}
}

// Render writes the JPEG and the HTML view, then opens the view. The output
// directories must exist unless CreateDirs is set. Failing to open a browser
// is only logged.
func (r *Renderer) Render(ctx context.Context, fig *Figure) error {
	slog.InfoContext(ctx, "rendering map", "traces", len(fig.Traces), "center_lat", fig.Layout.Center.Lat, "center_lon", fig.Layout.Center.Lon, "zoom", fig.Layout.Zoom)

	if r.opts.ImagePath != "" {
		img, err := Rasterize(fig, r.opts.Scale)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.opts.Quality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
		if err := r.write(r.opts.ImagePath, buf.Bytes()); err != nil {
			return err
		}
		slog.InfoContext(ctx, "image saved", "path", r.opts.ImagePath, "bytes", buf.Len())
	}

	if r.opts.HTMLPath != "" {
		var buf bytes.Buffer
		if err := WriteHTML(&buf, fig); err != nil {
			return err
		}
		if err := r.write(r.opts.HTMLPath, buf.Bytes()); err != nil {
			return err
		}
		slog.InfoContext(ctx, "map view saved", "path", r.opts.HTMLPath)

		if r.opts.Open {
			if err := r.open(r.opts.HTMLPath); err != nil {
				slog.WarnContext(ctx, "could not open map view", "path", r.opts.HTMLPath, "error", err)
			}
		}
	}
	return nil
}

func (r *Renderer) write(path string, data []byte) error {
	if r.opts.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
