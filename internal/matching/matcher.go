// Package matching links free-text names on safety events to driver and
// vehicle master records.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Candidate struct {
	ID   string
	Name string
}

type Pair struct {
	Left  Candidate `json:"left"`
	Right Candidate `json:"right"`
	Score float64   `json:"score"`
}

// Result partitions the inputs. Every left candidate appears either in
// Matches or in UnmatchedLeft; Review carries the best sub-threshold guess
// for unmatched left candidates so nothing is dropped silently.
type Result struct {
	Matches        []Pair      `json:"matches"`
	Review         []Pair      `json:"review"`
	UnmatchedLeft  []Candidate `json:"unmatched_left"`
	UnmatchedRight []Candidate `json:"unmatched_right"`
}

// Match performs a greedy one-to-one assignment of left to right candidates
// by descending similarity. Pairs scoring at least threshold are matches.
// Threshold is clamped to (0, 1].
func Match(left, right []Candidate, threshold float64) Result {
	if threshold <= 0 {
		threshold = 1e-9
	}
	if threshold > 1 {
		threshold = 1
	}

	lk := make([]key, len(left))
	for i, c := range left {
		lk[i] = newKey(c.Name)
	}
	rk := make([]key, len(right))
	for j, c := range right {
		rk[j] = newKey(c.Name)
	}

	type scored struct {
		i, j  int
		score float64
	}
	var all []scored
	for i := range left {
		for j := range right {
			if s := similarity(lk[i], rk[j]); s > 0 {
				all = append(all, scored{i, j, s})
			}
		}
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].score != all[b].score {
			return all[a].score > all[b].score
		}
		if all[a].i != all[b].i {
			return all[a].i < all[b].i
		}
		return all[a].j < all[b].j
	})

	leftUsed := make([]bool, len(left))
	rightUsed := make([]bool, len(right))
	var res Result

	for _, s := range all {
		if s.score < threshold {
			break
		}
		if leftUsed[s.i] || rightUsed[s.j] {
			continue
		}
		leftUsed[s.i], rightUsed[s.j] = true, true
		res.Matches = append(res.Matches, Pair{Left: left[s.i], Right: right[s.j], Score: s.score})
	}

	reviewed := make([]bool, len(left))
	for _, s := range all {
		if leftUsed[s.i] || rightUsed[s.j] || reviewed[s.i] {
			continue
		}
		reviewed[s.i] = true
		res.Review = append(res.Review, Pair{Left: left[s.i], Right: right[s.j], Score: s.score})
	}

	for i, c := range left {
		if !leftUsed[i] {
			res.UnmatchedLeft = append(res.UnmatchedLeft, c)
		}
	}
	for j, c := range right {
		if !rightUsed[j] {
			res.UnmatchedRight = append(res.UnmatchedRight, c)
		}
	}
	return res
}

type key struct {
	spaced  string
	sorted  string
	compact string
}

var fold = cases.Fold()

// normalize folds case, strips accents and reduces punctuation to spaces.
func normalize(name string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := fold.String(stripped)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func newKey(name string) key {
	tokens := normalize(name)
	sortedTokens := append([]string(nil), tokens...)
	sort.Strings(sortedTokens)
	return key{
		spaced:  strings.Join(tokens, " "),
		sorted:  strings.Join(sortedTokens, " "),
		compact: strings.Join(tokens, ""),
	}
}

// similarity is the best Levenshtein ratio across the key forms. Sorting
// tokens makes "Smith John" equal "John Smith"; the compact form makes
// "1ABC-234" equal "1ABC 234".
func similarity(a, b key) float64 {
	if a.compact == "" || b.compact == "" {
		return 0
	}
	best := ratio(a.spaced, b.spaced)
	if s := ratio(a.sorted, b.sorted); s > best {
		best = s
	}
	if s := ratio(a.compact, b.compact); s > best {
		best = s
	}
	return best
}

func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
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
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
