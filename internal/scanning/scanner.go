package scanning

import (
	"context"
	"image"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zombor/receipt-itemizer/internal/extraction"
)

// OCRResult is the raw output of one OCR pass over a receipt image
type OCRResult struct {
	Words    []extraction.WordToken `json:"words"`
	FullText string                 `json:"full_text"`
}

// Scanner defines the interface for OCR engines that return positioned words
type Scanner interface {
	// ScanWords runs OCR over a receipt image/PDF and returns every recognized word with its box
	ScanWords(ctx context.Context, imageData []byte, contentType string) (*OCRResult, error)
	// Close closes the scanner and releases resources
	Close() error
}

// newToken builds a word token, folding compatibility characters
// (full-width digits, ligatures) so the extraction patterns see plain text.
func newToken(text string, vertices [4]extraction.Point) extraction.WordToken {
	return extraction.NewWordToken(strings.TrimSpace(norm.NFKC.String(text)), vertices)
}

// rectVertices returns the corners of r clockwise from the top-left.
func rectVertices(r image.Rectangle) [4]extraction.Point {
	return [4]extraction.Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
