// Package factory implements component C5: the single entry point that
// turns a class name (or a `_type` discriminator found in raw data) plus a
// map of field values into a constructed, registered *model.Model tree.
//
// Factory satisfies model.Constructor, closing the adoption pipeline a
// Field runs when it encounters a plain object addressed at a Model-kind
// field: the Field calls back into the owning Model's Factory to build the
// nested instance, rather than importing this package directly (see
// model/doc.go for the cycle this avoids).
//
// Factory is a mutex-protected struct built via New with functional
// Options, its operations traced at their boundary via internal/trace. A
// nil context passed to Create, a nil registry passed to New, or a nil
// class passed to Register panics: that is a programmer error, not a
// runtime condition to recover from. Create called with a nil class
// returns an InvariantViolation error instead.
package factory
