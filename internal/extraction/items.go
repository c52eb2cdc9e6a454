package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minLineLength = 5
	minNameLength = 3
)

// noiseRule matches a line that can never be an item.
type noiseRule struct {
	name string
	re   *regexp.Regexp
}

// noiseRules are checked in order; the first match rejects the line.
var noiseRules = []noiseRule{
	{"payment keyword", regexp.MustCompile(`(?i)\b(sub[\s-]*total|total|tax|cash|card|change|balance|tender(ed)?|visa|master\s*card|amex|debit|thank\s*you|receipt|store|address|phone)\b`)},
	{"quantity code", regexp.MustCompile(`^\d+\s+\d+\s+[$€£]?\s?\d+\.\d{2}$`)},
	{"bare amount", regexp.MustCompile(`^[$€£]?\s?\d+\.\d{2}$`)},
	{"location label", regexp.MustCompile(`(?i)^(st|str|store|loc|location|branch)\s*#?\s*:?\s*\d+\b`)},
	{"phone number", regexp.MustCompile(`(?:^|\D)\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}(?:\D|$)`)},
	{"url", regexp.MustCompile(`(?i)(https?://|www\.)\S+|\b[a-z0-9-]+\.(com|net|org|ca|us|co\.uk)\b`)},
	{"email", regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)},
	{"terminal label", regexp.MustCompile(`(?i)^(type|trans(action)?|txn|tran|merchant|mid|tid|terminal|term|auth(orization)?|approval|appr|ref(erence)?|seq|aid|acct)\b[^:#]{0,15}[:#]`)},
	{"auth code", regexp.MustCompile(`(?i)\b(auth(orization)?|approval)\s+(code|no\.?|num(ber)?)\b`)},
}

// quantityRule pulls a leading multiplier off the start of a line.
type quantityRule struct {
	name string
	re   *regexp.Regexp
}

// quantityRules are tried in order; at most one applies.
var quantityRules = []quantityRule{
	{"at", regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*@\s*`)},
	{"times", regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*[xX×]\s+`)},
}

var (
	// The amount may not follow a digit, comma or dot, so "1,299.99" is not
	// read as 299.99.
	reTrailingPrice  = regexp.MustCompile(`(?:^|[^\d,.])((?:[$€£]\s?)?(\d+\.\d{2}))\s*$`)
	reLeadingUnit    = regexp.MustCompile(`^[$€£]?(\d+\.\d{2})\s+`)
	reNameSpecial    = regexp.MustCompile(`[@$#]`)
	reMultiSpace     = regexp.MustCompile(`\s+`)
	reTrailingAmount = regexp.MustCompile(`\s*\d+\.\d{2}$`)
)

// priceSeparators may sit between an item name and its price.
const priceSeparators = " \t:$€£"

// ParseLine tries to read a line item out of one line of receipt text.
// When the line is not an item the returned Rejection says which stage
// discarded it; a rejection is an ordinary outcome, not an error.
func ParseLine(text string, cfg Config) (ParsedItem, Rejection) {
	cfg = cfg.withDefaults()
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) < minLineLength {
		return ParsedItem{}, RejectTooShort
	}

	for _, rule := range noiseRules {
		if rule.re.MatchString(text) {
			return ParsedItem{}, RejectNoise
		}
	}

	loc := reTrailingPrice.FindStringSubmatchIndex(text)
	if loc == nil {
		return ParsedItem{}, RejectNoPrice
	}
	price, err := strconv.ParseFloat(text[loc[4]:loc[5]], 64)
	if err != nil || price <= 0 || price > cfg.MaxPrice {
		return ParsedItem{}, RejectPriceOutOfRange
	}

	rest := strings.TrimRight(text[:loc[2]], priceSeparators)

	var item ParsedItem
	item.Price = price

	for _, rule := range quantityRules {
		m := rule.re.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil || qty <= 0 {
			continue
		}
		item.Quantity = &qty
		rest = rest[len(m[0]):]

		if cfg.StripUnitPrice && rule.name == "at" {
			rest = stripUnitPrice(rest, &item)
		}
		break
	}

	name := cleanName(rest)
	if !validName(name) {
		return ParsedItem{}, RejectInvalidName
	}
	item.Name = name

	return item, Accepted
}

// stripUnitPrice removes a leading "1.99 " left over from the
// "qty @ unit-price name" shape and records it on the item.
func stripUnitPrice(rest string, item *ParsedItem) string {
	m := reLeadingUnit.FindStringSubmatch(rest)
	if m == nil {
		return rest
	}
	unit, err := strconv.ParseFloat(m[1], 64)
	if err != nil || unit <= 0 {
		return rest
	}
	item.UnitPrice = &unit
	return rest[len(m[0]):]
}

func cleanName(s string) string {
	s = reNameSpecial.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = reTrailingAmount.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func validName(name string) bool {
	if utf8.RuneCountInString(name) < minNameLength {
		return false
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
