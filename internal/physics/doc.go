// Package physics keeps rigid bodies and their scene proxies in step.
//
// A [World] owns the dynamics world, the registry that binds each body to
// exactly one [scene.Proxy], the joints between bodies and a
// [collision.Tracker]. Each frame the driver calls [World.Update], which
// steps the simulation, copies body poses onto proxies and scans the contact
// manifolds for collision onsets, in that order.
//
//   - [CreateRigidBody]: builds a [Handle] from a shape, a proxy and a [Motion]
//   - [World.AddBody], [World.RemoveBody], [World.ReplaceBody]: registry
//   - [World.SyncTransforms]: body pose to proxy pose
//   - [World.AddP2PConstraint], [World.AddHingeConstraint]: joints
//   - [World.ApplyForce], [World.ApplyCentralImpulse]: forces
//
// # Failure Semantics
//
// Only body construction returns errors. Per-frame calls that name a proxy
// without a body, or a nil handle, do nothing and log at debug level.
//
// # Thread Safety
//
// A World is driven by a single goroutine, the frame loop.
package physics
