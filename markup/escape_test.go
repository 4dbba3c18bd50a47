package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/xmlserial/value"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "QUJD+/==", "QUJD+/=="},
		{"all", `<a b="c" d='e'>&</a>`, "&lt;a b=&quot;c&quot; d=&apos;e&apos;&gt;&amp;&lt;/a&gt;"},
		{"existing_entity", "&amp;", "&amp;amp;"},
		{"numeric_ref", "&#34;", "&amp;#34;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Escape(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, Unescape(got))
		})
	}
}

func TestUnescape_SinglePass(t *testing.T) {
	assert.Equal(t, "&lt;", Unescape("&amp;lt;"))
	assert.Equal(t, "&#xD;", Unescape("&#xD;"))
	assert.Equal(t, "&nbsp; &", Unescape("&nbsp; &"))
}

func TestEscapedDocument_RoundTrip(t *testing.T) {
	v := value.Map(
		value.Field(`k"ey`, value.Str("a\r\nb <&> 'q'")),
		value.Field("n", value.Float(-1.5)),
	)
	doc, err := Emit(v)
	require.NoError(t, err)

	escaped := Escape(doc)
	assert.NotContains(t, escaped, "<")
	assert.NotContains(t, escaped, `"`)

	got, err := Parse(Unescape(escaped))
	require.NoError(t, err)
	assert.True(t, value.Equal(v, got))
}
