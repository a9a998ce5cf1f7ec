// Package wire implements the bit-exact Commit message shape and the
// discriminated envelope used to carry it across the (out-of-scope)
// transport: connection, push, full-state, and error events.
//
// Encoding goes through EncodeCommit, EncodeCommitSet and EncodeEnvelope,
// configured by functional WriteOptions, over encoding/json onto a fixed
// wire struct rather than an ad hoc map.
package wire
