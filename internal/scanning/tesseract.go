package scanning

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/receipt-itemizer/internal/extraction"
)

// Tesseract implements the Scanner interface using a local Tesseract install.
//
// A gosseract client holds a single Tesseract API handle and is not safe for
// concurrent use, so scans are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a new Tesseract Scanner instance.
// languages are Tesseract language codes such as "eng" or "fra"; empty means "eng".
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// ScanWords runs Tesseract and returns word-level bounding boxes
func (t *Tesseract) ScanWords(ctx context.Context, imageData []byte, contentType string) (*OCRResult, error) {
	finalImageData, _, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.client.SetImageFromBytes(finalImageData); err != nil {
		return nil, fmt.Errorf("setting image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("reading word boxes: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	result := &OCRResult{
		Words:    toWordTokens(boxes),
		FullText: strings.TrimSpace(text),
	}
	return result, nil
}

// Close releases the Tesseract handle
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

func toWordTokens(boxes []gosseract.BoundingBox) []extraction.WordToken {
	words := make([]extraction.WordToken, 0, len(boxes))
	for _, b := range boxes {
		w := newToken(b.Word, rectVertices(b.Box))
		if w.Text == "" {
			continue
		}
		words = append(words, w)
	}
	return words
}
