package scanning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zombor/receipt-itemizer/internal/extraction"
)

// wordScanPrompt is the shared prompt used by all LLM providers for word-level OCR
const wordScanPrompt = `You are an OCR engine. Read every word printed on this receipt image.

For each word, report its exact text and the four corners of its bounding box in image pixel coordinates, clockwise starting at the top-left corner.

Return ONLY valid JSON in this exact format:
{
  "full_text": "all text on the receipt, one printed line per line",
  "words": [
    {"text": "BANANAS", "box": [x1, y1, x2, y2, x3, y3, x4, y4]}
  ]
}

Important:
- Report words exactly as printed; do not correct spelling or merge prices into names
- One entry per word; split on whitespace
- Coordinates must be numbers, not strings
- If the image holds no text, return {"full_text": "", "words": []}
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

const wordsSchemaJSON = `{
  "type": "object",
  "required": ["words"],
  "properties": {
    "full_text": {"type": "string"},
    "words": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "box"],
        "properties": {
          "text": {"type": "string"},
          "box": {
            "type": "array",
            "items": {"type": "number"},
            "minItems": 8,
            "maxItems": 8
          }
        }
      }
    }
  }
}`

var wordsSchema = mustCompileSchema("words.json", wordsSchemaJSON)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("adding schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

type wordsPayload struct {
	FullText string `json:"full_text"`
	Words    []struct {
		Text string    `json:"text"`
		Box  []float64 `json:"box"`
	} `json:"words"`
}

// parseWordsJSON parses the word list returned by an LLM provider
func parseWordsJSON(text string) (*OCRResult, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	raw := []byte(text[startIdx : endIdx+1])

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if err := wordsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match word schema: %w", err)
	}

	var payload wordsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &OCRResult{
		Words:    make([]extraction.WordToken, 0, len(payload.Words)),
		FullText: strings.TrimSpace(payload.FullText),
	}
	for _, w := range payload.Words {
		var vertices [4]extraction.Point
		for i := range vertices {
			vertices[i] = extraction.Point{X: w.Box[2*i], Y: w.Box[2*i+1]}
		}
		token := newToken(w.Text, vertices)
		if token.Text == "" {
			continue
		}
		result.Words = append(result.Words, token)
	}

	return result, nil
}
