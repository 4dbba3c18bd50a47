package transcode

import (
	"fmt"

	"github.com/Neumenon/xmlserial/diag"
	"github.com/Neumenon/xmlserial/envelope"
	"github.com/Neumenon/xmlserial/markup"
)

// Transcoder converts between the text-safe string of an envelope and an
// escaped markup document. The bool result is false when the conversion
// failed; the failure itself is recorded in the transcoder's diagnostic
// log, never returned.
type Transcoder interface {
	ToMarkup(textSafe string) (string, bool)
	ToSerialString(markup string) (string, bool)
}

// XML is the markup transcoder. It holds no mutable state and is safe for
// concurrent use.
type XML struct {
	codec *envelope.Codec
	log   *diag.Log
	emit  markup.EmitOptions
}

type options struct {
	codec *envelope.Codec
	log   *diag.Log
	emit  markup.EmitOptions
}

// Option configures a transcoder.
type Option func(*options)

// WithCodec sets the envelope codec. The default decodes and encodes CBOR.
func WithCodec(c *envelope.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLog sets the diagnostic log failures are reported to. The default is
// diag.Default().
func WithLog(l *diag.Log) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithEmitOptions sets how documents are written.
func WithEmitOptions(opts markup.EmitOptions) Option {
	return func(o *options) {
		o.emit = opts
	}
}

func buildOptions(opts []Option) options {
	o := options{
		codec: envelope.New(),
		log:   diag.Default(),
		emit:  markup.DefaultEmitOptions(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewXML creates an XML transcoder.
func NewXML(opts ...Option) *XML {
	o := buildOptions(opts)
	return &XML{codec: o.codec, log: o.log, emit: o.emit}
}

// Log returns the diagnostic log the transcoder reports to.
func (x *XML) Log() *diag.Log {
	return x.log
}

// ToMarkup decodes a text-safe string and returns the graph as an escaped
// XML document.
func (x *XML) ToMarkup(textSafe string) (string, bool) {
	out, err := x.toMarkup(textSafe)
	if err != nil {
		x.fail(fmt.Errorf("to markup: %w", err))
		return "", false
	}
	return out, true
}

func (x *XML) toMarkup(textSafe string) (string, error) {
	v, err := x.codec.Decode(textSafe)
	if err != nil {
		return "", err
	}
	doc, err := markup.EmitWithOptions(v, x.emit)
	if err != nil {
		return "", err
	}
	return markup.Escape(doc), nil
}

// ToSerialString parses an escaped XML document and returns the graph's
// text-safe string.
func (x *XML) ToSerialString(doc string) (string, bool) {
	out, err := x.toSerialString(doc)
	if err != nil {
		x.fail(fmt.Errorf("to serial string: %w", err))
		return "", false
	}
	return out, true
}

func (x *XML) toSerialString(doc string) (string, error) {
	v, err := markup.Parse(markup.Unescape(doc))
	if err != nil {
		return "", err
	}
	return x.codec.Encode(v)
}

// fail records exactly one error entry for a failed call.
func (x *XML) fail(err error) {
	x.log.Report(err.Error(), true)
}

var _ Transcoder = (*XML)(nil)
