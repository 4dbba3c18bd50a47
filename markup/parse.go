package markup

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/xmlserial/value"
)

// Position is a location in a markup document.
type Position struct {
	Line   int
	Column int
	Offset int64
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError is a malformed markup document: bad XML, an unknown
// element, an unresolvable reference or scalar text of the wrong shape.
type ParseError struct {
	Message string
	Pos     Position
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markup: %s at %s", e.Message, e.Pos)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a document produced by Emit back into a value graph.
// Elements carrying an id are registered before their children, so a
// ref inside a container may point at the container itself.
func Parse(doc string) (*value.Value, error) {
	p := &parser{
		dec: xml.NewDecoder(strings.NewReader(doc)),
		ids: make(map[string]*value.Value),
	}
	p.dec.Strict = true

	root, err := p.root()
	if err != nil {
		return nil, err
	}
	v, err := p.element(root)
	if err != nil {
		return nil, err
	}
	if err := p.trailer(); err != nil {
		return nil, err
	}
	return v, nil
}

type parser struct {
	dec *xml.Decoder
	ids map[string]*value.Value
}

func (p *parser) pos() Position {
	line, col := p.dec.InputPos()
	return Position{Line: line, Column: col, Offset: p.dec.InputOffset()}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: p.pos()}
}

// token returns the next token. Character data is copied because the
// decoder reuses its buffer.
func (p *parser) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, p.errorf("unexpected end of document")
	}
	if err != nil {
		return nil, &ParseError{Message: err.Error(), Pos: p.pos(), Err: err}
	}
	return xml.CopyToken(tok), nil
}

// root skips the prolog and returns the document element.
func (p *parser) root() (xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, p.errorf("empty document")
		}
		if err != nil {
			return xml.StartElement{}, &ParseError{Message: err.Error(), Pos: p.pos(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t.Copy(), nil
		case xml.CharData:
			if !isSpace(t) {
				return xml.StartElement{}, p.errorf("text before root element")
			}
		case xml.EndElement:
			return xml.StartElement{}, p.errorf("unexpected </%s>", t.Name.Local)
		}
	}
}

func (p *parser) trailer() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ParseError{Message: err.Error(), Pos: p.pos(), Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return p.errorf("content after root element: <%s>", t.Name.Local)
		case xml.CharData:
			if !isSpace(t) {
				return p.errorf("text after root element")
			}
		}
	}
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// name reads a key, name or type attribute, falling back to its base64
// form.
func (p *parser) name(start xml.StartElement, attrName string) (string, error) {
	if s, ok := attr(start, attrName); ok {
		return s, nil
	}
	if s, ok := attr(start, attrName+b64Suffix); ok {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", p.errorf("<%s> %s%s: %v", start.Name.Local, attrName, b64Suffix, err)
		}
		return string(b), nil
	}
	return "", p.errorf("<%s> without %s", start.Name.Local, attrName)
}

func (p *parser) register(start xml.StartElement, v *value.Value) error {
	id, ok := attr(start, attrID)
	if !ok {
		return nil
	}
	if _, dup := p.ids[id]; dup {
		return p.errorf("duplicate id %q", id)
	}
	p.ids[id] = v
	return nil
}

// unqualified rejects elements in a namespace; the document shape uses
// none.
func (p *parser) unqualified(start xml.StartElement) error {
	if start.Name.Space != "" {
		return p.errorf("element <%s> in namespace %q", start.Name.Local, start.Name.Space)
	}
	return nil
}

func (p *parser) element(start xml.StartElement) (*value.Value, error) {
	if err := p.unqualified(start); err != nil {
		return nil, err
	}
	switch start.Name.Local {
	case elemRef:
		return p.ref(start)
	case elemList:
		return p.list(start)
	case elemMap:
		v := value.Map()
		if err := p.register(start, v); err != nil {
			return nil, err
		}
		return v, p.entries(v, elemEntry, attrKey)
	case elemRecord:
		typeName, err := p.name(start, attrType)
		if err != nil {
			return nil, err
		}
		v := value.NewRecord(typeName)
		if err := p.register(start, v); err != nil {
			return nil, err
		}
		return v, p.entries(v, elemField, attrName)
	case elemNull, elemBool, elemInt, elemFloat, elemString, elemBytes, elemTime:
		v, err := p.scalar(start)
		if err != nil {
			return nil, err
		}
		return v, p.register(start, v)
	}
	return nil, p.errorf("unknown element <%s>", start.Name.Local)
}

func (p *parser) ref(start xml.StartElement) (*value.Value, error) {
	id, ok := attr(start, attrID)
	if !ok {
		return nil, p.errorf("<%s> without %s", elemRef, attrID)
	}
	v, ok := p.ids[id]
	if !ok {
		return nil, p.errorf("reference to unknown id %q", id)
	}
	if _, err := p.text(start); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *parser) list(start xml.StartElement) (*value.Value, error) {
	v := value.List()
	if err := p.register(start, v); err != nil {
		return nil, err
	}
	for {
		tok, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := p.element(t)
			if err != nil {
				return nil, err
			}
			v.Append(child)
		case xml.EndElement:
			return v, nil
		case xml.CharData:
			if !isSpace(t) {
				return nil, p.errorf("text inside <%s>", elemList)
			}
		}
	}
}

// entries reads the wrapper elements of a map or record.
func (p *parser) entries(v *value.Value, wrapper, keyAttr string) error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != wrapper {
				return p.errorf("expected <%s>, got <%s>", wrapper, t.Name.Local)
			}
			if err := p.unqualified(t); err != nil {
				return err
			}
			key, err := p.name(t, keyAttr)
			if err != nil {
				return err
			}
			child, err := p.wrapped(t)
			if err != nil {
				return err
			}
			v.Add(key, child)
		case xml.EndElement:
			return nil
		case xml.CharData:
			if !isSpace(t) {
				return p.errorf("text between <%s> elements", wrapper)
			}
		}
	}
}

// wrapped reads the single element inside an entry or field.
func (p *parser) wrapped(start xml.StartElement) (*value.Value, error) {
	var v *value.Value
	for {
		tok, err := p.token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if v != nil {
				return nil, p.errorf("<%s> holds more than one value", start.Name.Local)
			}
			if v, err = p.element(t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if v == nil {
				return nil, p.errorf("empty <%s>", start.Name.Local)
			}
			return v, nil
		case xml.CharData:
			if !isSpace(t) {
				return nil, p.errorf("text inside <%s>", start.Name.Local)
			}
		}
	}
}

// text collects the character data of a leaf element up to its end tag.
func (p *parser) text(start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			return "", p.errorf("unexpected <%s> inside <%s>", t.Name.Local, start.Name.Local)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func (p *parser) scalar(start xml.StartElement) (*value.Value, error) {
	raw, err := p.text(start)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(raw)
	kind := start.Name.Local

	switch kind {
	case elemNull:
		if text != "" {
			return nil, p.errorf("text inside <%s>", elemNull)
		}
		return value.Null(), nil
	case elemBool:
		switch text {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		}
		return nil, p.errorf("invalid <%s> %q", kind, text)
	case elemInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.wrapf(err, "invalid <%s> %q", kind, text)
		}
		return value.Int(n), nil
	case elemFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.wrapf(err, "invalid <%s> %q", kind, text)
		}
		return value.Float(f), nil
	case elemString:
		enc, _ := attr(start, attrEncoding)
		switch enc {
		case "":
			return value.Str(raw), nil
		case encodingBase64:
			b, err := base64.StdEncoding.DecodeString(text)
			if err != nil {
				return nil, p.wrapf(err, "invalid base64 <%s>", kind)
			}
			return value.Str(string(b)), nil
		}
		return nil, p.errorf("unknown %s %q", attrEncoding, enc)
	case elemBytes:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, p.wrapf(err, "invalid base64 <%s>", kind)
		}
		return value.Bytes(b), nil
	case elemTime:
		enc, _ := attr(start, attrEncoding)
		switch enc {
		case "":
			t, err := time.Parse(time.RFC3339Nano, text)
			if err != nil {
				return nil, p.wrapf(err, "invalid <%s> %q", kind, text)
			}
			return value.Time(t), nil
		case encodingUnix:
			t, err := parseUnixTime(text)
			if err != nil {
				return nil, p.wrapf(err, "invalid <%s> %q", kind, text)
			}
			return value.Time(t), nil
		}
		return nil, p.errorf("unknown %s %q", attrEncoding, enc)
	}
	return nil, p.errorf("unknown element <%s>", kind)
}

func (p *parser) wrapf(err error, format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...), Pos: p.pos(), Err: err}
}

// parseUnixTime reads the "seconds nanoseconds offset" form of a time.
func parseUnixTime(text string) (time.Time, error) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return time.Time{}, errors.New("want seconds, nanoseconds and offset")
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	nsec, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if nsec < 0 || nsec >= int64(time.Second) {
		return time.Time{}, fmt.Errorf("nanoseconds %d out of range", nsec)
	}
	offset, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Unix(sec, nsec)
	if offset == 0 {
		return t.UTC(), nil
	}
	return t.In(time.FixedZone("", int(offset))), nil
}

func isSpace(b []byte) bool {
	return len(strings.TrimSpace(string(b))) == 0
}

