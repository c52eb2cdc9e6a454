package receipt

import (
	"errors"
	"time"

	"github.com/zombor/receipt-itemizer/internal/extraction"
)

// ErrReceiptNotFound is returned when no receipt exists for an ID
var ErrReceiptNotFound = errors.New("receipt not found")

// Receipt is a stored upload together with its cached OCR output.
// The ID is the hex SHA-256 of the uploaded bytes, so re-uploading the same
// image finds the same receipt.
type Receipt struct {
	ID          string                 `json:"id"`
	Filename    string                 `json:"filename"`
	ContentType string                 `json:"content_type"`
	Path        string                 `json:"path"`
	Words       []extraction.WordToken `json:"words"`
	FullText    string                 `json:"full_text"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Scan is the response for one receipt: the stored receipt plus the items
// extracted from it with the current configuration
type Scan struct {
	Receipt *Receipt           `json:"receipt"`
	Result  *extraction.Result `json:"result"`
	Cached  bool               `json:"cached"`
}

// Summary is the list view of a receipt, without its word tokens
type Summary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	WordCount   int       `json:"word_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Receipt) summary() Summary {
	return Summary{
		ID:          r.ID,
		Filename:    r.Filename,
		ContentType: r.ContentType,
		WordCount:   len(r.Words),
		CreatedAt:   r.CreatedAt,
	}
}
