// Package model implements the typed field storage, parent/child
// ownership, path navigation, and path-pattern watcher subscriptions that
// make up the reactive data-model core (components C2 Field, C3 Model and
// C4 Watcher).
//
// Model is the central mutable structure: every mutation runs through a
// typed Field and returns a typed error rather than panicking on bad input. A ClassDef is declared entirely
// in Go — built once via NewClass/Extend — and Models are constructed
// against it at runtime, with no schema compiled from source text.
//
// # Package Dependencies
//
// model imports registry (a Model is a registry.Entry) and immutable (for
// trackOld clones). It defines the Constructor
// interface rather than importing package factory directly, so factory can
// implement Constructor and depend on model without model depending back
// on factory.
package model
