// Package memory provides small reusable memory primitives: a typed
// object pool backing the engine's order allocator, and a fixed
// capacity ring that keeps the most recent values of a stream.
//
// The package is generic and dependency-free so the domain layer can
// consume it through its own interfaces.
package memory
