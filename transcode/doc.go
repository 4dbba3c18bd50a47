// Package transcode converts text-safe envelope strings to escaped markup
// documents and back.
//
//	ToMarkup:       text-safe --envelope.Decode--> graph --markup.Emit--> XML --markup.Escape-->
//	ToSerialString: escaped XML --markup.Unescape--> XML --markup.Parse--> graph --envelope.Encode-->
//
// Transcoders never return errors. A failed call yields the absent result
// and appends one error entry to the diagnostic log. Implementations are
// found by name through a registry that holds "xml" from init.
package transcode
