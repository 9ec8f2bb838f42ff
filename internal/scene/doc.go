// Package scene holds the render-side proxies that rigid bodies are mirrored
// onto, and a name-indexed graph of them.
package scene
