// Package watermark embeds provenance marks into generated images: an
// invisible steganographic tag plus an optional visible banner.
package watermark

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"server/internal/domain"
)

// Config controls which marks are applied.
type Config struct {
	// Tag is the payload embedded invisibly in the pixel data. Empty
	// disables the invisible mark.
	Tag string
	// Label is the visible banner text. Empty disables the banner.
	Label string
}

// Marker applies watermarks to data-URL images. The zero value applies
// nothing.
type Marker struct {
	cfg Config
}

func New(cfg Config) *Marker {
	return &Marker{cfg: cfg}
}

// Apply decodes the data URL, embeds the configured marks and re-encodes as
// PNG. Videos and non-image payloads pass through untouched.
func (m *Marker) Apply(dataURL string) (string, error) {
	if m.cfg.Tag == "" && m.cfg.Label == "" {
		return dataURL, nil
	}
	img, err := domain.ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(img.MIME, "image/") {
		return dataURL, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return "", domain.Wrap(domain.KindInternal, "watermark_decode_failed", err)
	}

	bounds := decoded.Bounds()
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, decoded, bounds.Min, draw.Src)

	if m.cfg.Tag != "" {
		if err := embed(canvas, m.cfg.Tag); err != nil {
			return "", err
		}
	}
	if m.cfg.Label != "" {
		drawBanner(canvas, m.cfg.Label)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", domain.Wrap(domain.KindInternal, "watermark_encode_failed", err)
	}
	out := domain.InlineImage{Data: buf.Bytes(), MIME: "image/png"}
	return out.DataURL(), nil
}

// embed writes a 32-bit length header followed by the tag bytes into the
// least significant bit of each channel, row-major from the top-left.
func embed(img *image.NRGBA, tag string) error {
	payload := []byte(tag)
	bits := make([]byte, 0, 32+len(payload)*8)
	length := uint32(len(payload))
	for i := 31; i >= 0; i-- {
		bits = append(bits, byte(length>>uint(i))&1)
	}
	for _, b := range payload {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>uint(i))&1)
		}
	}
	if len(bits) > len(img.Pix) {
		return domain.E(domain.KindInternal, "watermark_too_small",
			"image too small to carry a %d byte watermark", len(payload))
	}
	for i, bit := range bits {
		img.Pix[i] = img.Pix[i]&0xFE | bit
	}
	return nil
}

// Extract recovers an invisible tag from a data-URL image. It returns an
// empty string when no plausible tag is present.
func Extract(dataURL string) (string, error) {
	img, err := domain.ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return "", domain.Wrap(domain.KindInternal, "watermark_decode_failed", err)
	}
	bounds := decoded.Bounds()
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, decoded, bounds.Min, draw.Src)

	if len(canvas.Pix) < 32 {
		return "", nil
	}
	var length uint32
	for i := 0; i < 32; i++ {
		length = length<<1 | uint32(canvas.Pix[i]&1)
	}
	if length == 0 || int(length)*8+32 > len(canvas.Pix) {
		return "", nil
	}
	payload := make([]byte, length)
	for i := range payload {
		var b byte
		for j := 0; j < 8; j++ {
			b = b<<1 | canvas.Pix[32+i*8+j]&1
		}
		payload[i] = b
	}
	return string(payload), nil
}

// drawBanner paints a translucent strip with a blocky rendition of the label
// in the bottom-right corner.
func drawBanner(img *image.NRGBA, label string) {
	bounds := img.Bounds()
	const glyphW, glyphH, scale, pad = 4, 6, 2, 6
	textW := len(label) * (glyphW + 1) * scale
	textH := glyphH * scale

	x1 := bounds.Max.X - pad
	y1 := bounds.Max.Y - pad
	x0 := x1 - textW - pad
	y0 := y1 - textH - pad
	if x0 < bounds.Min.X {
		x0 = bounds.Min.X
	}
	if y0 < bounds.Min.Y {
		y0 = bounds.Min.Y
	}

	strip := image.Rect(x0, y0, x1+pad, y1+pad).Intersect(bounds)
	draw.Draw(img, strip, &image.Uniform{C: color.NRGBA{A: 96}}, image.Point{}, draw.Over)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 230}
	cx := x0 + pad/2
	cy := y0 + pad/2
	for _, r := range label {
		glyph, ok := glyphs[r]
		if !ok {
			glyph = glyphs['?']
		}
		for row := 0; row < glyphH; row++ {
			for col := 0; col < glyphW; col++ {
				if glyph[row]>>(glyphW-1-col)&1 == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := cx + col*scale + dx
						py := cy + row*scale + dy
						if (image.Point{X: px, Y: py}.In(bounds)) {
							img.SetNRGBA(px, py, white)
						}
					}
				}
			}
		}
		cx += (glyphW + 1) * scale
	}
}

// glyphs is a minimal 4x6 bitmap font covering the characters watermark
// labels actually use.
var glyphs = map[rune][6]byte{
	'A': {0b0110, 0b1001, 0b1001, 0b1111, 0b1001, 0b1001},
	'B': {0b1110, 0b1001, 0b1110, 0b1001, 0b1001, 0b1110},
	'C': {0b0111, 0b1000, 0b1000, 0b1000, 0b1000, 0b0111},
	'D': {0b1110, 0b1001, 0b1001, 0b1001, 0b1001, 0b1110},
	'E': {0b1111, 0b1000, 0b1110, 0b1000, 0b1000, 0b1111},
	'G': {0b0111, 0b1000, 0b1011, 0b1001, 0b1001, 0b0111},
	'I': {0b1110, 0b0100, 0b0100, 0b0100, 0b0100, 0b1110},
	'N': {0b1001, 0b1101, 0b1101, 0b1011, 0b1011, 0b1001},
	'R': {0b1110, 0b1001, 0b1110, 0b1100, 0b1010, 0b1001},
	'T': {0b1111, 0b0110, 0b0110, 0b0110, 0b0110, 0b0110},
	' ': {0, 0, 0, 0, 0, 0},
	'?': {0b0110, 0b1001, 0b0010, 0b0100, 0b0000, 0b0100},
}
