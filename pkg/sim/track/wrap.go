package track

import "math"

// Wrap maps s into [0, length).
func Wrap(s, length float64) float64 {
	r := math.Mod(s, length)
	if r < 0 {
		r += length
	}
	// r + length may round up to length for tiny negative r
	if r >= length {
		r = 0
	}
	return r
}

// WrappedDistance is the shortest separation of s1 and s2 on a loop of the given length.
// The result is in [0, length/2] and symmetric in s1, s2.
func WrappedDistance(s1, s2, length float64) float64 {
	d := math.Abs(Wrap(s1, length) - Wrap(s2, length))
	return math.Min(d, length-d)
}

// WrappedSignedDiff returns s1-s2 normalized into (-length/2, length/2].
// A positive value means s1 is ahead of s2 in direction of travel.
func WrappedSignedDiff(s1, s2, length float64) float64 {
	d := math.Mod(s1-s2, length)
	if d > length/2 {
		d -= length
	} else if d <= -length/2 {
		d += length
	}
	return d
}
