// render/renderer.go
package render

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Format names a rendered artifact type.
type Format string

const (
	FormatPNG  Format = "png"
	FormatText Format = "text"
)

// ContentType is the MIME type the artifact is served with.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) filename() string {
	if f == FormatPNG {
		return "summary.png"
	}
	return "summary.txt"
}

// Renderer turns a Summary into bytes of one Format.
type Renderer interface {
	Format() Format
	Render(s Summary) ([]byte, error)
}

// TextRenderer writes the summary as plain text lines.
type TextRenderer struct{}

func (TextRenderer) Format() Format { return FormatText }

func (TextRenderer) Render(s Summary) ([]byte, error) {
	return []byte(strings.Join(s.Lines(), "\n") + "\n"), nil
}

// Select picks the renderer for the configured format. "auto" prefers the
// image renderer and falls back to text when its fonts cannot be loaded.
func Select(format string, logger *zap.Logger) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text":
		return TextRenderer{}, nil
	case "png":
		r, err := NewImageRenderer()
		if err != nil {
			return nil, fmt.Errorf("image renderer unavailable: %w", err)
		}
		return r, nil
	case "", "auto":
		r, err := NewImageRenderer()
		if err != nil {
			logger.Warn("image renderer unavailable, falling back to text summary", zap.Error(err))
			return TextRenderer{}, nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported render format %q", format)
	}
}
