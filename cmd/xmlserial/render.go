package main

import (
	"io"

	"github.com/fatih/color"

	"github.com/Neumenon/xmlserial/diag"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	noticeColor = color.New(color.FgYellow)
	idColor     = color.New(color.Faint)
)

// useColor resolves the --color flag. "auto" follows fatih/color's
// terminal detection.
func (a *app) useColor() bool {
	switch a.color {
	case "on":
		return true
	case "off":
		return false
	}
	return !color.NoColor
}

// printLog writes one line per diagnostic entry, oldest first.
func printLog(w io.Writer, entries []*diag.Entry, useColor bool) {
	for _, c := range []*color.Color{errorColor, noticeColor, idColor} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, e := range entries {
		idColor.Fprintf(w, "#%d ", e.ID())
		if e.IsError() {
			errorColor.Fprint(w, e.Severity())
		} else {
			noticeColor.Fprint(w, e.Severity())
		}
		io.WriteString(w, ": "+e.Description()+"\n")
	}
}
