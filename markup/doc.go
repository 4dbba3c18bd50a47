// Package markup renders value graphs as XML documents and reads them
// back.
//
// Scalars become leaf elements named after their kind:
//
//	<null/> <bool>true</bool> <int>-3</int> <float>2.5</float>
//	<string>text</string> <bytes>AAEC</bytes> <time>2025-12-19T20:00:00Z</time>
//
// Containers nest their children:
//
//	<list>...</list>
//	<map><entry key="k">...</entry></map>
//	<record type="Point"><field name="x">...</field></record>
//
// A node reached more than once carries id="N" at its first occurrence;
// later occurrences are written as <ref id="N"/>. Strings and names that
// are not valid XML character data are written in base64, flagged by
// encoding="base64" on the element or by the key64, name64 and type64
// attributes.
//
// Escape and Unescape handle the five markup metacharacters for callers
// that embed a whole document in another document.
package markup
