package decision

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher compares claimed field values against extracted document values and
// returns a normalized agreement score. All comparisons are deterministic and
// local; no model calls, so results are reproducible in tests.
type Matcher struct {
	cfg PolicyConfig
}

// NewMatcher builds a Matcher using the thresholds in cfg.
func NewMatcher(cfg PolicyConfig) Matcher {
	return Matcher{cfg: cfg}
}

// CompareExact compares two date-like values. A date either matches or it
// does not; there is no fuzziness.
func (m Matcher) CompareExact(claimed, extracted string) (bool, float64) {
	claimed = strings.TrimSpace(claimed)
	extracted = strings.TrimSpace(extracted)
	if claimed == "" || extracted == "" {
		return false, 0.0
	}
	if claimed == extracted {
		return true, 1.0
	}
	return false, 0.0
}

// CompareFreeText compares two free-text values (names) with fuzzy matching.
// The boundary is inclusive: similarity exactly at the threshold agrees.
func (m Matcher) CompareFreeText(claimed, extracted string) (bool, float64) {
	sim := Similarity(claimed, extracted)
	return sim >= m.cfg.NameMatchThreshold, sim
}

// employerSuffixes are corporate suffixes stripped before employer comparison
// so "Acme Inc." and "Acme" agree.
var employerSuffixes = []string{"inc", "corp", "corporation", "llc", "ltd", "co"}

// CompareEmployer compares employer names after stripping corporate suffixes.
func (m Matcher) CompareEmployer(claimed, extracted string) (bool, float64) {
	sim := Similarity(stripEmployerSuffixes(claimed), stripEmployerSuffixes(extracted))
	return sim >= m.cfg.NameMatchThreshold, sim
}

func stripEmployerSuffixes(s string) string {
	tokens := strings.Fields(normalize(s))
	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		found := false
		for _, suffix := range employerSuffixes {
			if last == suffix {
				tokens = tokens[:len(tokens)-1]
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return strings.Join(tokens, " ")
}

// CompareAddress compares addresses component-wise: exact match on state and
// zip, fuzzy match on street and city. The aggregate is the mean of the
// scores for components present on both sides; the boundary is inclusive.
func (m Matcher) CompareAddress(claimed, extracted Address) (bool, float64) {
	var scores []float64

	if has(claimed.Street) && has(extracted.Street) {
		scores = append(scores, Similarity(claimed.Street, extracted.Street))
	}
	if has(claimed.City) && has(extracted.City) {
		scores = append(scores, Similarity(claimed.City, extracted.City))
	}
	if has(claimed.State) && has(extracted.State) {
		scores = append(scores, exactScore(claimed.State, extracted.State))
	}
	if has(claimed.Zip) && has(extracted.Zip) {
		scores = append(scores, exactScore(claimed.Zip, extracted.Zip))
	}

	if len(scores) == 0 {
		return false, 0.0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	return mean >= m.cfg.AddressMatchThreshold, mean
}

func has(s string) bool { return strings.TrimSpace(s) != "" }

func exactScore(a, b string) float64 {
	if normalize(a) == normalize(b) {
		return 1.0
	}
	return 0.0
}

// Similarity computes a normalized similarity in [0,1] between two free-text
// values: a weighted blend of token-set overlap and edit-distance ratio over
// normalized strings. Subset names ("Jane A. Doe" vs "Jane Doe") score high
// because the overlap coefficient divides by the smaller token set.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	token := tokenOverlap(strings.Fields(na), strings.Fields(nb))
	edit := editRatio(na, nb)

	sim := 0.6*token + 0.4*edit
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// tokenOverlap returns the overlap coefficient |A∩B| / min(|A|,|B|).
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	common := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			common++
		}
	}
	min := len(set)
	if len(seen) < min {
		min = len(seen)
	}
	return float64(common) / float64(min)
}

// editRatio returns 1 - levenshtein/maxLen.
func editRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes edit distance with a two-row DP.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// foldTransformer decomposes to NFKD and strips combining marks so diacritic
// variants of the same name are not penalized.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalize case-folds, strips diacritics and punctuation, and collapses
// whitespace so visually-equivalent values compare equal.
func normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
