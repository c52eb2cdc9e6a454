package extraction

import (
	"errors"
	"log/slog"
	"strings"
)

// ErrNoTextDetected is returned when the OCR output holds no text at all.
var ErrNoTextDetected = errors.New("no text detected")

// Extractor runs the full pipeline with a fixed Config.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an Extractor. Zero-valued Config fields take their defaults.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract reconstructs lines from words and pulls out the receipt date and
// line items. fullText is the OCR engine's plain-text rendering of the page;
// it is only consulted to decide whether anything was recognized at all.
func (e *Extractor) Extract(words []WordToken, fullText string) (*Result, error) {
	if strings.TrimSpace(fullText) == "" && !hasText(words) {
		return nil, ErrNoTextDetected
	}

	lines := ReconstructLines(words, e.cfg.LineTolerance)

	res := &Result{
		Items: make([]ParsedItem, 0),
		Diagnostics: Diagnostics{
			TotalLines: len(lines),
			Rejections: make(map[Rejection]int),
		},
	}

	if date, ok := LocateDate(lines); ok {
		res.Date = date
	}

	for _, line := range lines {
		item, rejection := ParseLine(line.Text, e.cfg)
		if rejection != Accepted {
			res.Diagnostics.RejectedLines++
			res.Diagnostics.Rejections[rejection]++
			continue
		}
		res.Diagnostics.AcceptedItems++
		if len(res.Items) < e.cfg.MaxItems {
			res.Items = append(res.Items, item)
		} else {
			res.Diagnostics.Truncated = true
		}
	}

	e.logger.Debug("extraction complete",
		"words", len(words),
		"lines", res.Diagnostics.TotalLines,
		"accepted", res.Diagnostics.AcceptedItems,
		"returned", len(res.Items),
		"truncated", res.Diagnostics.Truncated,
		"date_found", res.Date != "",
	)

	return res, nil
}

func hasText(words []WordToken) bool {
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			return true
		}
	}
	return false
}
