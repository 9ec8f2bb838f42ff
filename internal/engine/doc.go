// Package engine is a small rigid-body dynamics engine in the shape of a
// discrete dynamics world: collision shapes, rigid bodies with motion states,
// a sweep-and-prune broadphase, a narrowphase that produces contact
// manifolds, and a sequential-impulse solver for contacts and joints.
//
//   - [World]: owns bodies and constraints, advanced with [World.StepSimulation]
//   - [RigidBody]: built from a [RigidBodyConstructionInfo]
//   - [Shape]: box, sphere, cylinder, static plane, compound, convex hull,
//     triangle mesh
//   - [Dispatcher]: enumerates [PersistentManifold] values after a step
//   - [Point2PointConstraint], [HingeConstraint]: joints between two bodies
//
// # Stepping
//
// StepSimulation runs a fixed count of solver sub-steps per call when
// fixedTimeStep is zero; with a positive fixedTimeStep it accumulates time
// and runs at most maxSubSteps internal steps of that size.
//
// # Thread Safety
//
// A World and everything registered with it must be driven from a single
// goroutine.
package engine
