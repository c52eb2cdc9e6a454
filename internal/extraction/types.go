// Package extraction turns OCR word tokens into receipt line items.
//
// The pipeline has three stages. ReconstructLines clusters word tokens into
// text lines by vertical proximity, LocateDate finds the first date-shaped
// line, and ParseLine runs each line through an ordered set of rules that
// separate purchasable items from headers, totals and payment metadata.
// Extractor ties the stages together and caps the number of items returned.
//
// Apart from an optional debug log line, everything here is a pure transform.
package extraction

// Point is a vertex of a word's bounding box in page-pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WordToken is a single recognized word and its position on the page.
type WordToken struct {
	Text      string   `json:"text"`
	CentroidX float64  `json:"centroid_x"`
	CentroidY float64  `json:"centroid_y"`
	Vertices  [4]Point `json:"vertices"`
}

// NewWordToken builds a token whose centroid is the mean of its vertices.
func NewWordToken(text string, vertices [4]Point) WordToken {
	var sx, sy float64
	for _, v := range vertices {
		sx += v.X
		sy += v.Y
	}
	return WordToken{
		Text:      text,
		CentroidX: sx / 4,
		CentroidY: sy / 4,
		Vertices:  vertices,
	}
}

// Line is a reconstructed row of text.
type Line struct {
	// Words are sorted left to right
	Words []WordToken `json:"words"`

	// Text is the word texts joined by single spaces
	Text string `json:"text"`

	// CentroidY is the running average Y of the cluster when it closed
	CentroidY float64 `json:"centroid_y"`
}

// ParsedItem is a purchasable line item found on a receipt.
type ParsedItem struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Quantity *float64 `json:"quantity,omitempty"`

	// UnitPrice is only set when Config.StripUnitPrice is enabled and the
	// line had the "qty @ unit-price name total" shape.
	UnitPrice *float64 `json:"unit_price,omitempty"`
}

// Rejection names the stage at which ParseLine discarded a line.
type Rejection string

const (
	Accepted              Rejection = ""
	RejectTooShort        Rejection = "too_short"
	RejectNoise           Rejection = "noise"
	RejectNoPrice         Rejection = "no_price"
	RejectPriceOutOfRange Rejection = "price_out_of_range"
	RejectInvalidName     Rejection = "invalid_name"
)

// Diagnostics summarizes a single extraction run.
type Diagnostics struct {
	TotalLines int `json:"total_lines"`

	// AcceptedItems counts every line the parser accepted, before MaxItems
	// is applied. len(Result.Items) is the number actually returned.
	AcceptedItems int  `json:"accepted_items"`
	RejectedLines int  `json:"rejected_lines"`
	Truncated     bool `json:"truncated"`

	Rejections map[Rejection]int `json:"rejections,omitempty"`
}

// Result is the output of an extraction run.
type Result struct {
	Items       []ParsedItem `json:"items"`
	Date        string       `json:"date,omitempty"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Config holds the tunables of the pipeline.
type Config struct {
	// LineTolerance is the maximum distance in pixels between a token's
	// centroid Y and the running average Y of the line being built.
	// Too small splits one printed row into several lines; too large merges
	// neighbouring rows. Default 5.
	LineTolerance float64

	// MaxPrice is the largest price accepted for a single item. Default 1000.
	MaxPrice float64

	// MaxItems caps the number of items returned. Default 30.
	MaxItems int

	// StripUnitPrice enables removal of a leading unit price left in the
	// name after an "@" quantity ("2 @ 1.99 APPLES 3.98"). Off by default.
	StripUnitPrice bool
}

const (
	DefaultLineTolerance = 5.0
	DefaultMaxPrice      = 1000.0
	DefaultMaxItems      = 30
)

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		LineTolerance: DefaultLineTolerance,
		MaxPrice:      DefaultMaxPrice,
		MaxItems:      DefaultMaxItems,
	}
}

// withDefaults fills zero or negative fields with their defaults.
func (c Config) withDefaults() Config {
	if c.LineTolerance <= 0 {
		c.LineTolerance = DefaultLineTolerance
	}
	if c.MaxPrice <= 0 {
		c.MaxPrice = DefaultMaxPrice
	}
	if c.MaxItems <= 0 {
		c.MaxItems = DefaultMaxItems
	}
	return c
}
