// Package demo builds the sample scenes and the gameplay rules that react
// to their collision flags.
//
// # Scenes
//
//   - drop: spheres and a crate falling onto a floor, with seeded pebbles
//   - hammer: a hammer falls on a laser button, which makes a hanging ball heavy
//   - dominos: a domino chain that ends against a food container
//   - elevator: a kinematic platform lifts a ball and throws it off at the top
//   - rope: a chain of spheres pinned to a hook with point joints
//   - arm: an arm spun about a static base by a hinge motor
//
// # Collision Groups
//
// Dominos, the food container, the hammer and the button use their own
// groups so the scenes can filter them explicitly.
package demo
