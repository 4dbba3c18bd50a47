package envelope

import "strings"

// sentinelRepeat is how many times a sentinel word is repeated to stand
// in for one reserved character.
const sentinelRepeat = 10

type reservedChar struct {
	char  string
	token string
}

// reserved lists the characters a text-safe string never contains, in
// escaping order. The tokens are words over [a-z], so no token contains
// a reserved character and no substitution can create one.
var reserved = [...]reservedChar{
	{char: "\n", token: strings.Repeat("newline", sentinelRepeat)},
	{char: "\"", token: strings.Repeat("quote", sentinelRepeat)},
	{char: ";", token: strings.Repeat("semicolon", sentinelRepeat)},
}

// Escape replaces every newline, double quote and semicolon in s with
// its sentinel token.
func Escape(s string) string {
	for _, r := range reserved {
		s = strings.ReplaceAll(s, r.char, r.token)
	}
	return s
}

// Unescape replaces every complete sentinel token in s with its
// character, scanning left to right without overlap. A run of a word
// shorter than the sentinel length is left as is, so Unescape accepts
// any input.
//
// Unescape inverts Escape only when no letter of a sentinel word sits
// next to a reserved character: Escape(`quote"`) unescapes to `"quote`.
// Base64 text produced by Encode never holds a reserved character.
func Unescape(s string) string {
	return unescapeInOrder(s, []int{2, 1, 0})
}

func unescapeInOrder(s string, order []int) string {
	for _, i := range order {
		s = strings.ReplaceAll(s, reserved[i].token, reserved[i].char)
	}
	return s
}

// containsSentinel reports whether s holds a complete sentinel token.
func containsSentinel(s string) bool {
	for _, r := range reserved {
		if strings.Contains(s, r.token) {
			return true
		}
	}
	return false
}
