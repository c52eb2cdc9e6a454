package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zombor/receipt-itemizer/internal/extraction"
	"github.com/zombor/receipt-itemizer/internal/scanning"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db         DB
	scanner    scanning.Scanner
	storage    Storage
	extractor  *extraction.Extractor
	timeSource TimeSource

	// uploads collapses concurrent uploads of the same content into one scan
	uploads singleflight.Group
}

// NewService creates a new Service with the default time source
func NewService(db DB, scanner scanning.Scanner, storage Storage, extractor *extraction.Extractor) *Service {
	return NewServiceWithDeps(db, scanner, storage, extractor, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, extractor *extraction.Extractor, timeSrc TimeSource) *Service {
	if extractor == nil {
		extractor = extraction.New(extraction.DefaultConfig(), nil)
	}
	return &Service{
		db:         db,
		scanner:    scanner,
		storage:    storage,
		extractor:  extractor,
		timeSource: timeSrc,
	}
}

var (
	reFilenameSpecial = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reFilenameSpaces  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = reFilenameSpecial.ReplaceAllString(base, "")
	base = reFilenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phones generate long names; 50 chars is plenty to recognize a file
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// contentID returns the hex SHA-256 of data
func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ProcessReceipt stores an upload, runs OCR over it, and extracts its line items.
//
// Uploads are keyed by content, so a second upload of the same bytes skips
// OCR and re-extracts from the cached words. Only OCR output is cached;
// items are always derived with the current extraction settings.
func (s *Service) ProcessReceipt(ctx context.Context, filename string, data []byte, contentType string) (*Scan, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	id := contentID(data)

	v, err, shared := s.uploads.Do(id, func() (any, error) {
		return s.processUpload(ctx, id, filename, data, contentType)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Info("Joined in-flight upload", "receipt_id", id)
	}
	return v.(*Scan), nil
}

// processUpload runs under the content ID's slot in s.uploads, so no other
// upload of the same bytes can save or remove the stored file meanwhile.
func (s *Service) processUpload(ctx context.Context, id, filename string, data []byte, contentType string) (*Scan, error) {
	existing, err := s.db.GetReceipt(id)
	switch {
	case err == nil:
		slog.Info("Reusing cached OCR output", "receipt_id", id)
		return s.scanFor(existing, true)
	case !errors.Is(err, ErrReceiptNotFound):
		return nil, fmt.Errorf("checking cache: %w", err)
	}

	cleanFilename := sanitizeFilename(filename)
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(id+filepath.Ext(cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	ocr, err := s.scanner.ScanWords(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.removeFile(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	result, err := s.extractor.Extract(ocr.Words, ocr.FullText)
	if err != nil {
		// Nothing worth caching; a retry may use a better photo or scanner
		s.removeFile(savedPath)
		return nil, fmt.Errorf("extracting items: %w", err)
	}

	receipt := &Receipt{
		ID:          id,
		Filename:    cleanFilename,
		ContentType: contentType,
		Path:        savedPath,
		Words:       ocr.Words,
		FullText:    ocr.FullText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.removeFile(savedPath)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	slog.Info("Processed receipt",
		"receipt_id", id,
		"words", len(ocr.Words),
		"items", len(result.Items),
		"truncated", result.Diagnostics.Truncated,
	)

	return &Scan{Receipt: receipt, Result: result}, nil
}

// GetScan re-extracts items from a cached receipt with the current settings
func (s *Service) GetScan(id string) (*Scan, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return s.scanFor(receipt, true)
}

func (s *Service) scanFor(receipt *Receipt, cached bool) (*Scan, error) {
	result, err := s.extractor.Extract(receipt.Words, receipt.FullText)
	if err != nil {
		return nil, fmt.Errorf("extracting items: %w", err)
	}
	return &Scan{Receipt: receipt, Result: result, Cached: cached}, nil
}

// ListReceipts returns a summary of every receipt, newest first
func (s *Service) ListReceipts() ([]Summary, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	summaries := make([]Summary, 0, len(receipts))
	for _, r := range receipts {
		summaries = append(summaries, r.summary())
	}
	slices.SortStableFunc(summaries, func(a, b Summary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return summaries, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	s.removeFile(receipt.Path)

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptFile retrieves the file data for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.Path)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}

	return data, receipt.ContentType, nil
}

// removeFile deletes a stored file, logging instead of failing
func (s *Service) removeFile(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to delete file", "path", path, "error", err)
	}
}
