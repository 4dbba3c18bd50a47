package markup

import "strings"

var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	unescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// Escape replaces the five markup metacharacters with their named
// entities so a document can sit inside an attribute or text node.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape in a single left-to-right pass, so "&amp;lt;"
// becomes "&lt;" and not "<". Other references, numeric ones included,
// are left for the XML parser.
func Unescape(s string) string {
	return unescaper.Replace(s)
}
