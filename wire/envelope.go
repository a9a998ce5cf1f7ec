package wire

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the four abstract transport events: connection,
// push, full-state, and error.
type EventKind string

const (
	EventConnection EventKind = "connection"
	EventPush       EventKind = "push"
	EventFullState  EventKind = "full-state"
	EventError      EventKind = "error"
)

// Envelope is the discriminated union carried over the transport boundary.
// Exactly one of the payload fields is populated, matching Kind.
type Envelope struct {
	Kind EventKind `json:"kind"`

	// ConnectionID is set when Kind is EventConnection: the server's
	// assigned id for the accepted client.
	ConnectionID string `json:"id,omitempty"`

	// Commits is set when Kind is EventPush or EventFullState.
	Commits CommitSet `json:"commits,omitempty"`

	// Err is set when Kind is EventError.
	Err string `json:"error,omitempty"`
}

// NewConnection builds a `connection {id}` envelope.
func NewConnection(id string) Envelope {
	return Envelope{Kind: EventConnection, ConnectionID: id}
}

// NewPush builds a `push <commits>` envelope.
func NewPush(commits CommitSet) Envelope {
	return Envelope{Kind: EventPush, Commits: commits}
}

// NewFullState builds a `full-state <commits>` envelope.
func NewFullState(commits CommitSet) Envelope {
	return Envelope{Kind: EventFullState, Commits: commits}
}

// NewError builds an `error <err>` envelope.
func NewError(err error) Envelope {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Kind: EventError, Err: msg}
}

// EncodeEnvelope serializes e.
func EncodeEnvelope(e Envelope, opts ...WriteOption) ([]byte, error) {
	cfg := &writeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.indent != "" {
		return json.MarshalIndent(e, "", cfg.indent)
	}
	return json.Marshal(e)
}

// DecodeEnvelope parses an Envelope and validates that Kind names one of
// the four known events.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	switch e.Kind {
	case EventConnection, EventPush, EventFullState, EventError:
		return e, nil
	default:
		return Envelope{}, fmt.Errorf("wire: unknown envelope kind %q", e.Kind)
	}
}
