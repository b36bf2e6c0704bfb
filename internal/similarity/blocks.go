package similarity

import "github.com/pmezard/go-difflib/difflib"

// matchingChars sums the sizes of the matching blocks of a and b, as found
// by a sequence matcher without junk heuristics.
func matchingChars(a, b string) int {
	m := difflib.NewMatcherWithJunk(chars(a), chars(b), false, nil)
	total := 0
	for _, block := range m.GetMatchingBlocks() {
		total += block.Size
	}
	return total
}

// chars splits s into single byte elements
func chars(s string) []string {
	out := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = s[i : i+1]
	}
	return out
}
