// Package ocr recognizes text in images using Tesseract via gosseract.
// Tesseract and its language data must be installed on the host.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs one gosseract client per call; clients are not safe for
// concurrent use and are cheap relative to recognition itself.
type Tesseract struct {
	languages []string
}

// New returns an engine for the "+"-separated language list (e.g. "eng+deu").
func New(language string) *Tesseract {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Tesseract{languages: langs}
}

// FromBytes recognizes text in encoded image data (PNG, JPEG, TIFF).
func (t *Tesseract) FromBytes(ctx context.Context, data []byte) (string, error) {
	return t.recognize(ctx, func(c *gosseract.Client) error {
		return c.SetImageFromBytes(data)
	})
}

// FromFile recognizes text in the image file at path.
func (t *Tesseract) FromFile(ctx context.Context, path string) (string, error) {
	return t.recognize(ctx, func(c *gosseract.Client) error {
		return c.SetImage(path)
	})
}

func (t *Tesseract) recognize(ctx context.Context, load func(*gosseract.Client) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set ocr language: %w", err)
		}
	}
	if err := load(client); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
