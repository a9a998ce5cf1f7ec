// Package transport defines the boundary between replicate.Coordinator and
// whatever carries commits between peers. No concrete socket is
// implemented here; callers wire in their own (WebSocket, gRPC stream,
// in-process channel, …) — only the message shapes are specified.
package transport

import "github.com/latticemodel/lattice/wire"

// Transport is the send-only boundary a Coordinator pushes envelopes
// through. Receiving inbound envelopes and routing them to
// Coordinator.Merge is the caller's responsibility — Coordinator has no
// opinion on how an Envelope arrives, only on what to do with its
// CommitSet once decoded.
type Transport interface {
	Send(env wire.Envelope) error
}

// Func adapts a plain function to Transport.
type Func func(env wire.Envelope) error

func (f Func) Send(env wire.Envelope) error { return f(env) }

// Chan is an in-process Transport backed by a buffered channel, useful for
// tests and same-process peers.
type Chan chan wire.Envelope

func (c Chan) Send(env wire.Envelope) error {
	c <- env
	return nil
}
