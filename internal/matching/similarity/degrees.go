// internal/matching/similarity/degrees.go
package similarity

var degreeOrder = []string{"bachelor", "master", "phd"}

// DegreeOrder returns the ordered degree ladder.
func DegreeOrder() []string {
	out := make([]string, len(degreeOrder))
	copy(out, degreeOrder)
	return out
}

// DegreeIndex returns the position of d on the ladder, or -1 when unknown.
func DegreeIndex(d string) int {
	d = Normalize(d)
	for i, level := range degreeOrder {
		if level == d {
			return i
		}
	}
	return -1
}

// AreAdjacentDegrees reports whether a and b are exactly one step apart.
// Unknown degrees are never adjacent.
func AreAdjacentDegrees(a, b string) bool {
	ia, ib := DegreeIndex(a), DegreeIndex(b)
	if ia < 0 || ib < 0 {
		return false
	}
	diff := ia - ib
	return diff == 1 || diff == -1
}
