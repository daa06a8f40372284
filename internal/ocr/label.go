// Package ocr labels symbol class templates with recognized text using
// Tesseract. Labeling is a convenience for inspecting classification
// output; it plays no part in matching.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"jbsym/internal/bitmap"
)

// Labeler wraps a Tesseract client configured for isolated glyph images.
type Labeler struct {
	client *gosseract.Client
}

// NewLabeler creates a new template labeler.
func NewLabeler() (*Labeler, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("ocr: set language: %w", err)
	}
	// Templates are single isolated glyphs or words; dictionary-based
	// correction only hurts here.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	return &Labeler{client: client}, nil
}

// Close releases OCR resources.
func (l *Labeler) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// LabelTemplate recognizes the text of one template bitmap. An empty
// string means Tesseract saw nothing it could read; that is not an error.
func (l *Labeler) LabelTemplate(tpl *bitmap.Bitmap) (string, error) {
	if tpl == nil {
		return "", fmt.Errorf("ocr: nil template")
	}
	img := upscale(tpl.ToImage(), 48)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("ocr: encode template: %w", err)
	}
	if err := l.client.SetPageSegMode(gosseract.PSM_SINGLE_WORD); err != nil {
		return "", fmt.Errorf("ocr: set PSM: %w", err)
	}
	if err := l.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	text, err := l.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// upscale integer-scales small glyphs up to a minimum height; Tesseract
// reads ~50 px glyphs far more reliably than 15 px ones.
func upscale(img *image.Gray, minHeight int) *image.Gray {
	h := img.Bounds().Dy()
	if h >= minHeight {
		return img
	}
	scale := (minHeight + h - 1) / h
	w := img.Bounds().Dx()
	out := image.NewGray(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			out.SetGray(x, y, img.GrayAt(x/scale, y/scale))
		}
	}
	return out
}
