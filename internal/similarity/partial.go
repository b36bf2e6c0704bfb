package similarity

import "math"

// PartialRatio returns a 0-100 score of how well the shorter of a and b
// aligns against any equally sized window of the longer one.
// A short trademark embedded in a longer domain scores close to 100.
//
// Strings are compared byte-wise, callers pass ASCII (normalized watchlist
// phrases and zone owner names).
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}

	if len(short) == len(long) {
		// both orders are evaluated so tie-breaking inside the block
		// search cannot make the score depend on argument order
		matched := max(matchingChars(short, long), matchingChars(long, short))
		return ratio(matched, len(short)+len(long))
	}

	best := 0
	for offset := 0; offset+len(short) <= len(long); offset++ {
		window := long[offset : offset+len(short)]
		score := ratio(matchingChars(short, window), len(short)+len(window))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Matches reports whether score clears the accuracy threshold.
// The comparison is strict: a score equal to accuracy is not a match.
func Matches(score, accuracy int) bool {
	return score > accuracy
}

func ratio(matched, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * 2 * float64(matched) / float64(total)))
}
