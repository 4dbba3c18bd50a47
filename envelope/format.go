package envelope

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is a binary serialization used for the envelope bytes.
type Format interface {
	// Name returns the configuration name of the format.
	Name() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// ============================================================
// CBOR
// ============================================================

// cborFormat uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// graph always produces identical bytes, so the text form is stable.
type cborFormat struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR is the default envelope format.
var CBOR Format = newCBORFormat()

func newCBORFormat() *cborFormat {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("envelope: CBOR encoder initialization failed: " + err.Error())
	}
	// Unmarshal already rejects trailing bytes after the graph. Strings
	// carry arbitrary bytes, as Go strings do.
	dec, err := cbor.DecOptions{UTF8: cbor.UTF8DecodeInvalid}.DecMode()
	if err != nil {
		panic("envelope: CBOR decoder initialization failed: " + err.Error())
	}
	return &cborFormat{enc: enc, dec: dec}
}

func (f *cborFormat) Name() string { return "cbor" }

func (f *cborFormat) Marshal(v any) ([]byte, error) {
	return f.enc.Marshal(v)
}

func (f *cborFormat) Unmarshal(data []byte, v any) error {
	return f.dec.Unmarshal(data, v)
}

// ============================================================
// MessagePack
// ============================================================

type msgpackFormat struct{}

// MessagePack writes structs as arrays, matching the CBOR node layout.
var MessagePack Format = msgpackFormat{}

func (msgpackFormat) Name() string { return "msgpack" }

func (msgpackFormat) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseArrayEncodedStructs(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackFormat) Unmarshal(data []byte, v any) error {
	r := bytes.NewReader(data)
	if err := msgpack.NewDecoder(r).Decode(v); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes", r.Len())
	}
	return nil
}

// FormatByName resolves a configured format name.
func FormatByName(name string) (Format, error) {
	switch name {
	case "", "cbor":
		return CBOR, nil
	case "msgpack":
		return MessagePack, nil
	}
	return nil, fmt.Errorf("envelope: unknown format %q", name)
}
