package extraction

import "regexp"

// datePatterns are tried in order against every line.
var datePatterns = []*regexp.Regexp{
	// 12/31/2024, 31-12-24
	regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-](\d{4}|\d{2})\b`),
	// 2024/12/31, 2024-12-31
	regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
	// Dec 31, 2024 / SEPT. 3 24
	regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(st|nd|rd|th)?,?\s+(\d{4}|\d{2})\b`),
}

// LocateDate returns the text of the first line containing a date.
// The line is returned verbatim; it is not parsed.
func LocateDate(lines []Line) (string, bool) {
	for _, line := range lines {
		for _, re := range datePatterns {
			if re.MatchString(line.Text) {
				return line.Text, true
			}
		}
	}
	return "", false
}
