// Package collision turns the per-step contact manifolds of a physics world
// into named, edge-triggered collision flags that gameplay code can poll.
//
// A [Tracker] is fed once per frame by [Tracker.Scan]. Every manifold whose
// bodies both have names contributes a [Key] for each contact at or below
// zero separation, and the flag for that key is set. Flags are only cleared
// by [Tracker.Acknowledge]; a pair that is still touching on the next scan
// fires again.
//
// # Key Order
//
// With [PolicyCanonical] the two names are sorted, so "a-b" and "b-a" name
// the same flag. [PolicyDiscovery] keeps the order in which the world
// reported the pair.
package collision
