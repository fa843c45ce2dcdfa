package domain

import "math"

// Distance is the Euclidean distance between two profiles over the four
// features.
func Distance(a, b AudioProfile) float64 {
	dd := a.Danceability - b.Danceability
	de := a.Energy - b.Energy
	dv := a.Valence - b.Valence
	da := a.Acousticness - b.Acousticness
	return math.Sqrt(dd*dd + de*de + dv*dv + da*da)
}

// Similarity converts the distance between two profiles into a score
// contribution: (1 - distance) * 100, clamped at zero. Identical profiles
// yield exactly 100.
//
// This is not a normalized metric. Existing scores depend on the exact
// formula, so it must not be rescaled.
func Similarity(a, b AudioProfile) float64 {
	return math.Max(0, (1-Distance(a, b))*100)
}
