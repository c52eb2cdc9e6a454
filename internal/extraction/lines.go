package extraction

import (
	"math"
	"sort"
	"strings"
)

// ReconstructLines groups word tokens into lines ordered top to bottom.
//
// Tokens are swept in ascending centroid Y. A token joins the current line
// while its Y is within tolerance of the line's running average Y; otherwise
// the line is closed and a new one started. Closed lines are re-sorted by
// centroid X since the Y sweep scrambles reading order. Every input token
// appears in exactly one line. The input slice is not modified.
func ReconstructLines(words []WordToken, tolerance float64) []Line {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]WordToken, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CentroidY < sorted[j].CentroidY
	})

	var lines []Line
	cluster := []WordToken{sorted[0]}
	sumY := sorted[0].CentroidY

	for _, w := range sorted[1:] {
		avgY := sumY / float64(len(cluster))
		if math.Abs(w.CentroidY-avgY) <= tolerance {
			cluster = append(cluster, w)
			sumY += w.CentroidY
			continue
		}
		lines = append(lines, closeLine(cluster, avgY))
		cluster = []WordToken{w}
		sumY = w.CentroidY
	}
	lines = append(lines, closeLine(cluster, sumY/float64(len(cluster))))

	return lines
}

// closeLine orders a cluster left to right and assembles its text.
func closeLine(cluster []WordToken, avgY float64) Line {
	sort.SliceStable(cluster, func(i, j int) bool {
		return cluster[i].CentroidX < cluster[j].CentroidX
	})

	texts := make([]string, len(cluster))
	for i, w := range cluster {
		texts[i] = w.Text
	}

	return Line{
		Words:     cluster,
		Text:      strings.Join(texts, " "),
		CentroidY: avgY,
	}
}
