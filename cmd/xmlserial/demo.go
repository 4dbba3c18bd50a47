package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Neumenon/xmlserial/value"
)

const demoInput = "TEST-STRING"

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: `Round-trip "TEST-STRING" through markup and back`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDemo(cmd)
		},
	}
}

func (a *app) runDemo(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	codec, err := a.codec()
	if err != nil {
		return err
	}
	text, err := codec.Encode(value.Str(demoInput))
	if err != nil {
		return err
	}
	tr, err := a.newTranscoder()
	if err != nil {
		return err
	}

	before := a.log.Len()
	doc, ok := tr.ToMarkup(text)
	a.printSince(cmd, before)
	if !ok {
		return errAbsent
	}
	fmt.Fprintf(out, "%s\n\n", doc)

	before = a.log.Len()
	back, ok := tr.ToSerialString(doc)
	a.printSince(cmd, before)
	if !ok {
		return errAbsent
	}
	fmt.Fprintf(out, "%s\n\n", back)
	fmt.Fprintln(out, text == back)
	return nil
}
