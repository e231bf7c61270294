// render/image.go
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	canvasWidth  = 800
	canvasHeight = 500
	headerHeight = 60
	borderWidth  = 2
	rankSpacing  = 30
)

var (
	backgroundColor = color.RGBA{240, 240, 240, 255}
	headerColor     = color.RGBA{70, 130, 180, 255}
	mutedColor      = color.RGBA{128, 128, 128, 255}
)

// ImageRenderer draws the summary card as an 800×500 PNG.
type ImageRenderer struct {
	title font.Face
	body  font.Face
	small font.Face
}

// NewImageRenderer loads the embedded Go fonts. It fails only when the font
// data cannot be parsed.
func NewImageRenderer() (*ImageRenderer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	r := &ImageRenderer{}
	if r.title, err = newFace(bold, 28); err != nil {
		return nil, err
	}
	if r.body, err = newFace(regular, 20); err != nil {
		return nil, err
	}
	if r.small, err = newFace(regular, 16); err != nil {
		return nil, err
	}
	return r, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %.0fpt font face: %w", size, err)
	}
	return face, nil
}

func (r *ImageRenderer) Format() Format { return FormatPNG }

func (r *ImageRenderer) Render(s Summary) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	fill(img, img.Bounds(), backgroundColor)
	fill(img, image.Rect(0, 0, canvasWidth, headerHeight), headerColor)

	r.text(img, r.title, color.White, 20, 16, titleLine)
	r.text(img, r.body, color.Black, 50, 80, s.TotalLine())
	r.text(img, r.body, color.Black, 50, 120, topLine)

	y := 160
	for _, line := range s.RankLines() {
		r.text(img, r.small, color.Black, 70, y, line)
		y += rankSpacing
	}
	r.text(img, r.small, mutedColor, 50, 450, s.UpdatedLine())

	drawBorder(img, color.Black, borderWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode summary image: %w", err)
	}
	return buf.Bytes(), nil
}

// text draws s with its top-left corner at (x, top).
func (r *ImageRenderer) text(dst draw.Image, face font.Face, c color.Color, x, top int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func fill(dst draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func drawBorder(dst draw.Image, c color.Color, width int) {
	b := dst.Bounds()
	fill(dst, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width), c)
	fill(dst, image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y), c)
	fill(dst, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y), c)
	fill(dst, image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y), c)
}
