package similarity

import (
	"math"
	"net/url"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rohmanhakim/record-finder/internal/model"
	"github.com/rohmanhakim/record-finder/pkg/sequal"
)

/*
Attribute metrics

Every function here is pure and returns a value in [0,1] for input that
honours the extraction contract. None of them validate their input;
validation happens once at the session boundary.
*/

// DotProduct multiplies two term-frequency vectors.
// It walks the smaller map and probes the larger one.
func DotProduct(tfv1, tfv2 map[string]float64) float64 {
	shorter, longer := tfv1, tfv2
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	var dot float64
	for term, f := range shorter {
		if g, ok := longer[term]; ok {
			dot += f * g
		}
	}
	return dot
}

// CosineSimilarity compares the term-frequency vectors of two text nodes
// using their precomputed norms. The result is clamped to [0, 1].
func CosineSimilarity(a, b *model.TextNode) float64 {
	dot := DotProduct(a.TermFrequency, b.TermFrequency)
	if dot <= 0 || math.IsNaN(dot) {
		return 0
	}
	sim := dot / (a.Norm * b.Norm)
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(0, math.Min(1, sim))
}

// URLSimilarity averages hostname equality and normalised path edit similarity.
// Two missing URLs are identical; one missing URL shares nothing with a present one.
func URLSimilarity(u1, u2 *url.URL) float64 {
	if u1 == nil && u2 == nil {
		return 1
	}
	if u1 == nil || u2 == nil {
		return 0
	}

	var hostnameSimilarity float64
	if u1.Hostname() == u2.Hostname() {
		hostnameSimilarity = 1
	}

	return (hostnameSimilarity + pathSimilarity(urlPath(u1), urlPath(u2))) / 2
}

func urlPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func pathSimilarity(p1, p2 string) float64 {
	total := utf8.RuneCountInString(p1) + utf8.RuneCountInString(p2)
	if total == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(p1, p2)
	return 1 - float64(distance)/float64(total)
}

var tagPathCosts = sequal.Costs[string]{
	Substitution: func(a, b string) int {
		if a == b {
			return 0
		}
		return 2
	},
	Insertion: func(string) int { return 1 },
	Deletion:  func(string) int { return 1 },
}

// TagPathEditDistance is the edit distance between two tag paths where a
// substitution costs as much as a deletion plus an insertion.
func TagPathEditDistance(tp1, tp2 []string) int {
	return sequal.EditDistance(tp1, tp2, tagPathCosts)
}

func TagPathSimilarity(tp1, tp2 []string) float64 {
	if len(tp1) == 0 && len(tp2) == 0 {
		return 1
	}
	distance := TagPathEditDistance(tp1, tp2)
	return 1 - float64(distance)/float64(len(tp1)+len(tp2))
}

// PresentationStyleSimilarity is the share of ps1's properties that ps2 resolves
// to the same value. Comparable nodes carry the same key set; that is the
// extractor's contract and is not checked here.
//
// Zero keys: two empty maps are identical (1), an empty ps1 against a
// non-empty ps2 shares nothing (0).
func PresentationStyleSimilarity(ps1, ps2 map[string]string) float64 {
	if len(ps1) == 0 {
		if len(ps2) == 0 {
			return 1
		}
		return 0
	}

	similar := 0
	for style, value := range ps1 {
		if other, ok := ps2[style]; ok && other == value {
			similar++
		}
	}
	return float64(similar) / float64(len(ps1))
}

func RectangleSizeSimilarity(rs1, rs2 model.RectangleSize) float64 {
	widthDiff := normalizedDiff(rs1.Width, rs2.Width)
	heightDiff := normalizedDiff(rs1.Height, rs2.Height)
	return 1 - (widthDiff+heightDiff)/2
}

// normalizedDiff is |a-b|/max(a,b); two zero sides do not differ.
func normalizedDiff(a, b float64) float64 {
	largest := math.Max(a, b)
	if largest == 0 {
		return 0
	}
	return math.Abs(a-b) / largest
}
