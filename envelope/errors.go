package envelope

import (
	"errors"
	"fmt"
)

var (
	// ErrSentinelCollision is returned when the base64 text of an
	// envelope happens to contain a sentinel run, which Decode would
	// read back as a reserved character.
	ErrSentinelCollision = errors.New("base64 text contains a sentinel token")

	// ErrUnknownKind means a node declares a kind this codec cannot
	// resolve.
	ErrUnknownKind = errors.New("unknown node kind")

	// ErrDanglingRef means a node refers to a node index that does not exist.
	ErrDanglingRef = errors.New("node reference out of range")

	// ErrVersion means the envelope was written by an unsupported version.
	ErrVersion = errors.New("unsupported envelope version")
)

// EncodeError reports a value that could not be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "envelope: encode: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Decode stages, in pipeline order.
const (
	StageBase64   = "base64"
	StageEnvelope = "envelope"
	StageGraph    = "graph"
)

// DecodeError reports text that does not decode to a value graph.
type DecodeError struct {
	Stage string // StageBase64, StageEnvelope or StageGraph
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("envelope: decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
