package envelope

import (
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/xmlserial/value"
)

func sampleValues() map[string]*value.Value {
	shared := value.Str("shared")
	cyclic := value.List(value.Int(1))
	cyclic.Append(cyclic)
	ring := value.NewRecord("Node", value.Field("Name", value.Str("a")))
	ring.Set("Next", ring)

	return map[string]*value.Value{
		"null":         value.Null(),
		"test_string":  value.Str("TEST-STRING"),
		"bool":         value.Bool(true),
		"int":          value.Int(math.MinInt64),
		"float":        value.Float(3.14159),
		"neg_zero":     value.Float(math.Copysign(0, -1)),
		"nan":          value.Float(math.NaN()),
		"inf":          value.Float(math.Inf(-1)),
		"reserved":     value.Str("a;b\"c\nd"),
		"unicode":      value.Str("héllo ✓ \x00"),
		"invalid_utf8": value.Str("bad\xff"),
		"bytes":        value.Bytes([]byte{0, 1, 2, 0xff}),
		"empty_bytes":  value.Bytes(nil),
		"time":         value.Time(time.Date(2025, 12, 19, 20, 0, 0, 123456789, time.FixedZone("CET", 3600))),
		"far_future":   value.Time(time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC)),
		"year_minus_5": value.Time(time.Date(-5, 3, 1, 12, 0, 0, 7, time.FixedZone("", -5400))),
		"list":         value.List(value.Int(1), value.Str("two"), nil),
		"map":          value.Map(value.Field("b", value.Int(2)), value.Field("a", value.Int(1))),
		"dup_keys":     value.Map(value.Field("k", value.Int(1)), value.Field("k", value.Int(2))),
		"record":       value.NewRecord("Point", value.Field("x", value.Int(1)), value.Field("y", value.Float(2.5))),
		"shared":       value.List(shared, value.Map(value.Field("again", shared))),
		"cycle":        cyclic,
		"ring":         ring,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	formats := []Format{CBOR, MessagePack}

	for _, format := range formats {
		codec := New(WithFormat(format))
		for name, v := range sampleValues() {
			t.Run(format.Name()+"/"+name, func(t *testing.T) {
				text, err := codec.Encode(v)
				require.NoError(t, err)
				assert.NoError(t, checkAlphabet(text))

				got, err := codec.Decode(text)
				require.NoError(t, err)
				assert.True(t, value.Equal(v, got), "decode(encode(v)) differs")
			})
		}
	}
}

func TestCodec_PreservesAliasing(t *testing.T) {
	shared := value.Str("shared")
	text, err := Encode(value.List(shared, shared))
	require.NoError(t, err)

	got, err := Decode(text)
	require.NoError(t, err)
	first, _ := got.Index(0)
	second, _ := got.Index(1)
	assert.Same(t, first, second)
}

func TestCodec_PreservesCycles(t *testing.T) {
	ring := value.NewRecord("Node")
	ring.Set("Next", ring)

	text, err := Encode(ring)
	require.NoError(t, err)
	got, err := Decode(text)
	require.NoError(t, err)
	assert.Same(t, got, got.Get("Next"))
}

func TestCodec_Deterministic(t *testing.T) {
	a, err := Encode(value.Str("TEST-STRING"))
	require.NoError(t, err)
	b, err := Encode(value.Str("TEST-STRING"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeAny(t *testing.T) {
	type point struct{ X, Y int }

	text, err := EncodeAny(&point{X: 1, Y: 2})
	require.NoError(t, err)
	got, err := Decode(text)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.NewRecord("point", value.Field("X", value.Int(1)), value.Field("Y", value.Int(2))), got))

	_, err = EncodeAny(map[string]any{"handle": make(chan int)})
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.ErrorIs(t, err, value.ErrUnsupported)
	assert.True(t, strings.HasPrefix(err.Error(), "envelope: encode: "))
}

func TestDecode_Errors(t *testing.T) {
	valid, err := CBOR.Marshal(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: uint8(value.KindStr), Str: "x"}}})
	require.NoError(t, err)

	encodeGraph := func(g *wireGraph) string {
		data, err := CBOR.Marshal(g)
		require.NoError(t, err)
		return base64.StdEncoding.EncodeToString(data)
	}

	tests := []struct {
		name    string
		input   string
		stage   string
		wantErr error
	}{
		{
			name:  "not_base64",
			input: "not-valid-base64!!",
			stage: StageBase64,
		},
		{
			name:  "raw_newline",
			input: base64.StdEncoding.EncodeToString(valid)[:4] + "\r\n" + base64.StdEncoding.EncodeToString(valid)[4:],
			stage: StageBase64,
		},
		{
			name:  "bad_padding",
			input: "QUJ",
			stage: StageBase64,
		},
		{
			name:  "empty",
			input: "",
			stage: StageEnvelope,
		},
		{
			name:  "not_cbor",
			input: base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}),
			stage: StageEnvelope,
		},
		{
			name:  "trailing_bytes",
			input: base64.StdEncoding.EncodeToString(append(append([]byte(nil), valid...), 0x00)),
			stage: StageEnvelope,
		},
		{
			name:    "bad_version",
			input:   encodeGraph(&wireGraph{Version: 9, Nodes: []wireNode{{}}}),
			stage:   StageGraph,
			wantErr: ErrVersion,
		},
		{
			name:  "no_nodes",
			input: encodeGraph(&wireGraph{Version: graphVersion}),
			stage: StageGraph,
		},
		{
			name:    "unknown_kind",
			input:   encodeGraph(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: 42}}}),
			stage:   StageGraph,
			wantErr: ErrUnknownKind,
		},
		{
			name:    "dangling_child",
			input:   encodeGraph(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: uint8(value.KindList), Items: []uint32{7}}}}),
			stage:   StageGraph,
			wantErr: ErrDanglingRef,
		},
		{
			name:    "dangling_root",
			input:   encodeGraph(&wireGraph{Version: graphVersion, Root: 3, Nodes: []wireNode{{}}}),
			stage:   StageGraph,
			wantErr: ErrDanglingRef,
		},
		{
			name:  "key_count",
			input: encodeGraph(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: uint8(value.KindMap), Items: []uint32{0}}}}),
			stage: StageGraph,
		},
		{
			name:  "scalar_children",
			input: encodeGraph(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: uint8(value.KindInt), Items: []uint32{0}}}}),
			stage: StageGraph,
		},
		{
			name:  "bad_time",
			input: encodeGraph(&wireGraph{Version: graphVersion, Nodes: []wireNode{{Kind: uint8(value.KindTime), Nsec: 1_000_000_000}}}),
			stage: StageGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			require.Error(t, err)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr), "got %T: %v", err, err)
			assert.Equal(t, tt.stage, decErr.Stage)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecode_FormatMismatch(t *testing.T) {
	text, err := New(WithFormat(MessagePack)).Encode(value.Map(value.Field("a", value.Int(1))))
	require.NoError(t, err)

	_, err = New(WithFormat(CBOR)).Decode(text)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestFormatByName(t *testing.T) {
	f, err := FormatByName("")
	require.NoError(t, err)
	assert.Equal(t, "cbor", f.Name())

	f, err = FormatByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", f.Name())

	_, err = FormatByName("xml")
	require.EqualError(t, err, `envelope: unknown format "xml"`)
}

func TestEncode_RefusesSentinelCollision(t *testing.T) {
	assert.True(t, containsSentinel("AB"+strings.Repeat("quote", 10)))
	assert.False(t, containsSentinel("AB"+strings.Repeat("quote", 9)))
}
