// Package analysis inspects recorded trajectories after a run.
//
// # Spectrum
//
// [PowerSpectrum] and [DominantFrequency] find the swing rate of a proxy,
// e.g. a rope link or a hanging ball:
//
//	freq, ok := analysis.DominantFrequency(ys, dt)
//	if ok {
//	    period := 1 / freq
//	}
//
// # Settling
//
// [SettleTime] reports when a proxy stops moving away from its final pose.
package analysis
