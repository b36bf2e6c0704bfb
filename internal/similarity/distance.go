package similarity

import "github.com/agnivade/levenshtein"

// Distance returns the number of single character edits turning a into b
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
