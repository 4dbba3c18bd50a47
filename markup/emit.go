package markup

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Neumenon/xmlserial/value"
)

// Element and attribute names of the document shape.
const (
	elemNull   = "null"
	elemBool   = "bool"
	elemInt    = "int"
	elemFloat  = "float"
	elemString = "string"
	elemBytes  = "bytes"
	elemTime   = "time"
	elemList   = "list"
	elemMap    = "map"
	elemRecord = "record"
	elemEntry  = "entry"
	elemField  = "field"
	elemRef    = "ref"

	attrID       = "id"
	attrKey      = "key"
	attrName     = "name"
	attrType     = "type"
	attrEncoding = "encoding"

	// b64Suffix marks a name attribute whose value is base64 because
	// the name is not valid XML character data: key64, name64, type64.
	b64Suffix = "64"

	encodingBase64 = "base64"

	// encodingUnix marks a <time> outside years 0 to 9999, which RFC 3339
	// cannot write. Its text is "seconds nanoseconds offset".
	encodingUnix = "unix"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>`

// EmitOptions configures the emitter.
type EmitOptions struct {
	// Indent puts each element on its own line, indented by this string
	// per level. Empty means no whitespace between elements.
	Indent string

	// Header writes the XML declaration first.
	Header bool
}

// DefaultEmitOptions returns the options used by the transcoder.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{Header: true}
}

// PrettyEmitOptions returns options for human-readable output.
func PrettyEmitOptions() EmitOptions {
	return EmitOptions{Header: true, Indent: "  "}
}

// Emit converts a value graph to an XML document.
func Emit(v *value.Value) (string, error) {
	return EmitWithOptions(v, DefaultEmitOptions())
}

// EmitWithOptions converts a value graph with custom options.
func EmitWithOptions(v *value.Value, opts EmitOptions) (string, error) {
	e := &emitter{opts: opts}
	if opts.Header {
		e.sb.WriteString(header)
	}
	if err := value.Walk(v, e); err != nil {
		return "", err
	}
	return e.sb.String(), nil
}

type frame struct {
	kind     value.Kind
	children bool
}

type emitter struct {
	sb    strings.Builder
	opts  EmitOptions
	stack []frame // open containers
	level int     // element nesting, wrappers included
	key   string
}

func (e *emitter) newline() {
	if e.opts.Indent == "" {
		return
	}
	if e.sb.Len() > 0 {
		e.sb.WriteByte('\n')
	}
	for i := 0; i < e.level; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}

func (e *emitter) parent() *frame {
	if len(e.stack) == 0 {
		return nil
	}
	return &e.stack[len(e.stack)-1]
}

// openChild writes the entry or field wrapper a child of a map or
// record sits in.
func (e *emitter) openChild() {
	p := e.parent()
	if p == nil {
		return
	}
	p.children = true
	if p.kind == value.KindList {
		return
	}
	e.newline()
	if p.kind == value.KindMap {
		e.sb.WriteString("<" + elemEntry)
		e.nameAttr(attrKey, e.key)
	} else {
		e.sb.WriteString("<" + elemField)
		e.nameAttr(attrName, e.key)
	}
	e.sb.WriteByte('>')
	e.level++
}

func (e *emitter) closeChild() {
	p := e.parent()
	if p == nil || p.kind == value.KindList {
		return
	}
	e.level--
	e.newline()
	if p.kind == value.KindMap {
		e.sb.WriteString("</" + elemEntry + ">")
	} else {
		e.sb.WriteString("</" + elemField + ">")
	}
}

func (e *emitter) attr(name, val string) {
	e.sb.WriteByte(' ')
	e.sb.WriteString(name)
	e.sb.WriteString(`="`)
	_ = xml.EscapeText(&e.sb, []byte(val))
	e.sb.WriteByte('"')
}

func (e *emitter) nameAttr(name, val string) {
	if isXMLText(val) {
		e.attr(name, val)
		return
	}
	e.attr(name+b64Suffix, base64.StdEncoding.EncodeToString([]byte(val)))
}

func (e *emitter) idAttr(ref int) {
	if ref > 0 {
		e.attr(attrID, strconv.Itoa(ref))
	}
}

func (e *emitter) text(s string) {
	_ = xml.EscapeText(&e.sb, []byte(s))
}

func (e *emitter) Scalar(v *value.Value, ref int) error {
	e.openChild()
	e.newline()

	name, text, encoding := scalarText(v)
	e.sb.WriteString("<" + name)
	e.idAttr(ref)
	if encoding != "" {
		e.attr(attrEncoding, encoding)
	}
	if name == elemNull {
		e.sb.WriteString("/>")
	} else {
		e.sb.WriteByte('>')
		e.text(text)
		e.sb.WriteString("</" + name + ">")
	}

	e.closeChild()
	return nil
}

// scalarText returns the element name, text content and optional
// encoding attribute of a scalar.
func scalarText(v *value.Value) (name, text, encoding string) {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return elemBool, strconv.FormatBool(b), ""
	case value.KindInt:
		n, _ := v.AsInt()
		return elemInt, strconv.FormatInt(n, 10), ""
	case value.KindFloat:
		f, _ := v.AsFloat()
		return elemFloat, strconv.FormatFloat(f, 'g', -1, 64), ""
	case value.KindStr:
		s, _ := v.AsStr()
		if !isXMLText(s) {
			return elemString, base64.StdEncoding.EncodeToString([]byte(s)), encodingBase64
		}
		return elemString, s, ""
	case value.KindBytes:
		b, _ := v.AsBytes()
		return elemBytes, base64.StdEncoding.EncodeToString(b), ""
	case value.KindTime:
		t, _ := v.AsTime()
		if y := t.Year(); y < 0 || y > 9999 {
			_, offset := t.Zone()
			return elemTime, fmt.Sprintf("%d %d %d", t.Unix(), t.Nanosecond(), offset), encodingUnix
		}
		return elemTime, t.Format(time.RFC3339Nano), ""
	}
	return elemNull, "", ""
}

func (e *emitter) begin(name string, k value.Kind, typeName *string, ref int) error {
	e.openChild()
	e.newline()
	e.sb.WriteString("<" + name)
	e.idAttr(ref)
	if typeName != nil {
		e.nameAttr(attrType, *typeName)
	}
	e.sb.WriteByte('>')
	e.stack = append(e.stack, frame{kind: k})
	e.level++
	return nil
}

func (e *emitter) BeginList(v *value.Value, ref int) error {
	return e.begin(elemList, value.KindList, nil, ref)
}

func (e *emitter) BeginMap(v *value.Value, ref int) error {
	return e.begin(elemMap, value.KindMap, nil, ref)
}

func (e *emitter) BeginRecord(v *value.Value, ref int) error {
	rec, err := v.AsRecord()
	if err != nil {
		return err
	}
	return e.begin(elemRecord, value.KindRecord, &rec.TypeName, ref)
}

func (e *emitter) Key(name string) error {
	e.key = name
	return nil
}

func (e *emitter) End(v *value.Value) error {
	f := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.level--
	if f.children {
		e.newline()
	}
	e.sb.WriteString("</" + containerElem(f.kind) + ">")
	e.closeChild()
	return nil
}

func (e *emitter) Ref(v *value.Value, ref int) error {
	e.openChild()
	e.newline()
	e.sb.WriteString("<" + elemRef)
	e.attr(attrID, strconv.Itoa(ref))
	e.sb.WriteString("/>")
	e.closeChild()
	return nil
}

func containerElem(k value.Kind) string {
	switch k {
	case value.KindMap:
		return elemMap
	case value.KindRecord:
		return elemRecord
	}
	return elemList
}

// isXMLText reports whether s survives as XML 1.0 character data.
func isXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
