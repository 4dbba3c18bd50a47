// Package envelope round-trips value graphs through a portable byte form
// and a text-safe string.
//
// The text-safe string is safe to embed in fields delimited by
// semicolons, double quotes or newlines:
//
//	graph --flatten--> envelope bytes (CBOR by default)
//	      --base64 (StdEncoding, padded, unwrapped)-->
//	      --escape: "\n" -> "newline"x10, `"` -> "quote"x10, ";" -> "semicolon"x10
//
// Decode runs the same steps backwards. The envelope stores the graph as a
// node table in which children are node indices, so nodes shared within
// one value, including cycles, come back shared.
package envelope
