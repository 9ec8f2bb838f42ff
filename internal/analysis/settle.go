package analysis

import "github.com/go-gl/mathgl/mgl64"

// SettleTime returns the first time after which every position stays within
// tol of the last one. It returns -1 when the samples are empty or their
// lengths differ.
func SettleTime(times []float64, positions []mgl64.Vec3, tol float64) float64 {
	n := len(positions)
	if n == 0 || len(times) != n {
		return -1
	}

	final := positions[n-1]
	i := n - 1
	for i > 0 && positions[i-1].Sub(final).Len() <= tol {
		i--
	}
	return times[i]
}
