package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"

	"github.com/Neumenon/xmlserial/envelope"
	"github.com/Neumenon/xmlserial/value"
)

// errAbsent is returned when a transcoder produced no result. The cause
// has already been printed from the diagnostic log.
var errAbsent = errors.New("transcoding failed")

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON as a text-safe string",
		Long: `Encode reads a JSON document and writes its text-safe string.
Objects with a "$type" member become records. Comments and trailing
commas are allowed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}
			v, err := value.FromJSON(jsonc.ToJSON(data))
			if err != nil {
				return fmt.Errorf("parse JSON: %w", err)
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			text, err := codec.Encode(v)
			if err != nil {
				return err
			}
			a.logger.Debug("encoded", zap.Int("input_bytes", len(data)), zap.Int("output_bytes", len(text)))
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a text-safe string to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readLine(args)
			if err != nil {
				return err
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			v, err := codec.Decode(text)
			if err != nil {
				return err
			}
			out, err := value.ToJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newFingerprintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint [file]",
		Short: "Print the content hash of a text-safe string",
		Long: `Fingerprint decodes a text-safe string and prints the BLAKE3 hash of
its graph's CBOR envelope. A graph has the same fingerprint whichever
envelope format carried it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readLine(args)
			if err != nil {
				return err
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			v, err := codec.Decode(text)
			if err != nil {
				return err
			}
			fp, err := envelope.FingerprintOf(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp)
			return nil
		},
	}
}

func newToXMLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "to-xml [file]",
		Short: "Transcode a text-safe string to an escaped XML document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readLine(args)
			if err != nil {
				return err
			}
			tr, err := a.newTranscoder()
			if err != nil {
				return err
			}
			return a.emit(cmd, func() (string, bool) { return tr.ToMarkup(text) })
		},
	}
}

func newToSerialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "to-serial [file]",
		Short: "Transcode an escaped XML document to a text-safe string",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readLine(args)
			if err != nil {
				return err
			}
			tr, err := a.newTranscoder()
			if err != nil {
				return err
			}
			return a.emit(cmd, func() (string, bool) { return tr.ToSerialString(doc) })
		},
	}
}

// emit runs a transcoder call and prints its result, or the entries it
// added to the diagnostic log.
func (a *app) emit(cmd *cobra.Command, call func() (string, bool)) error {
	before := a.log.Len()
	out, ok := call()
	if !ok {
		a.printSince(cmd, before)
		return errAbsent
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// printSince prints the diagnostic entries appended after the first n.
func (a *app) printSince(cmd *cobra.Command, n int) {
	entries := a.log.Snapshot()
	if n > len(entries) {
		n = len(entries)
	}
	printLog(cmd.ErrOrStderr(), entries[n:], a.useColor())
}
