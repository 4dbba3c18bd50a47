package envelope

import (
	"encoding/base64"
	"fmt"

	"github.com/Neumenon/xmlserial/value"
)

// Codec converts value graphs to envelope bytes and text-safe strings.
// A Codec is stateless and safe for concurrent use.
type Codec struct {
	format Format
}

// Option configures a Codec.
type Option func(*Codec)

// WithFormat selects the binary format of the envelope.
func WithFormat(f Format) Option {
	return func(c *Codec) {
		if f != nil {
			c.format = f
		}
	}
}

// New creates a codec. The default format is CBOR.
func New(opts ...Option) *Codec {
	c := &Codec{format: CBOR}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns the envelope format in use.
func (c *Codec) Format() Format {
	return c.format
}

// Marshal serializes a value graph to envelope bytes.
func (c *Codec) Marshal(v *value.Value) ([]byte, error) {
	g, err := flatten(v)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	data, err := c.format.Marshal(g)
	if err != nil {
		return nil, &EncodeError{Err: fmt.Errorf("%s: %w", c.format.Name(), err)}
	}
	return data, nil
}

// Unmarshal deserializes envelope bytes into a value graph.
func (c *Codec) Unmarshal(data []byte) (*value.Value, error) {
	var g wireGraph
	if err := c.format.Unmarshal(data, &g); err != nil {
		return nil, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%s: %w", c.format.Name(), err)}
	}
	v, err := inflate(&g)
	if err != nil {
		return nil, &DecodeError{Stage: StageGraph, Err: err}
	}
	return v, nil
}

// Encode serializes v and returns its text-safe string: base64 of the
// envelope with newline, double quote and semicolon escaped.
func (c *Codec) Encode(v *value.Value) (string, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return "", err
	}
	text := base64.StdEncoding.EncodeToString(data)
	if containsSentinel(text) {
		return "", &EncodeError{Err: ErrSentinelCollision}
	}
	return Escape(text), nil
}

// EncodeAny converts a native Go value with value.From and encodes it.
func (c *Codec) EncodeAny(x any) (string, error) {
	v, err := value.From(x)
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	return c.Encode(v)
}

// Decode reverses Encode.
func (c *Codec) Decode(s string) (*value.Value, error) {
	text := Unescape(s)
	if err := checkAlphabet(text); err != nil {
		return nil, &DecodeError{Stage: StageBase64, Err: err}
	}
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &DecodeError{Stage: StageBase64, Err: err}
	}
	return c.Unmarshal(data)
}

// checkAlphabet rejects anything outside [A-Za-z0-9+/=]. The stdlib
// decoder silently skips CR and LF, which would let a stray newline
// decode.
func checkAlphabet(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=':
		default:
			return fmt.Errorf("illegal character %q at offset %d", c, i)
		}
	}
	return nil
}

var defaultCodec = New()

// Encode encodes v with the default codec.
func Encode(v *value.Value) (string, error) {
	return defaultCodec.Encode(v)
}

// EncodeAny encodes a native Go value with the default codec.
func EncodeAny(x any) (string, error) {
	return defaultCodec.EncodeAny(x)
}

// Decode decodes s with the default codec.
func Decode(s string) (*value.Value, error) {
	return defaultCodec.Decode(s)
}
