// xmlserial - delimiter-safe value transcoder CLI
//
// Usage:
//
//	xmlserial encode [file]       Encode JSON as a text-safe string
//	xmlserial decode [file]       Decode a text-safe string to JSON
//	xmlserial fingerprint [file]  Print the content hash of a text-safe string
//	xmlserial to-xml [file]       Transcode a text-safe string to escaped XML
//	xmlserial to-serial [file]    Transcode escaped XML to a text-safe string
//	xmlserial demo                Round-trip "TEST-STRING" and print the log
//	xmlserial version             Print version info
//
// If no file is given, or the file is "-", reads from stdin. Files ending
// in .zst or .lz4 are decompressed first.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/xmlserial/diag"
	"github.com/Neumenon/xmlserial/envelope"
	"github.com/Neumenon/xmlserial/internal/config"
	"github.com/Neumenon/xmlserial/transcode"
)

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	format     string
	transcoder string
	verbose    bool
	color      string

	cfg    *config.Config
	logger *zap.Logger
	log    *diag.Log
	stdin  io.Reader
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "xmlserial",
		Short:         "Delimiter-safe value transcoder",
		Long:          `xmlserial converts value graphs between a text-safe envelope string and an escaped XML document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.Version = version

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML or TOML config file")
	flags.StringVar(&a.format, "format", "", "envelope format (cbor|msgpack)")
	flags.StringVar(&a.transcoder, "transcoder", "", "registered transcoder name")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&a.color, "color", "auto", "colorize diagnostics (auto|on|off)")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newFingerprintCmd(a),
		newToXMLCmd(a),
		newToSerialCmd(a),
		newDemoCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the
// logger and diagnostic log.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = a.format
	}
	if cmd.Flags().Changed("transcoder") {
		cfg.Transcoder = a.transcoder
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		lvl, err := cfg.Level()
		if err != nil {
			return err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		// invocation tags every line written by this run.
		a.logger = logger.With(zap.String("invocation", uuid.NewString()))
	}
	if a.log == nil {
		a.log = diag.NewLog(diag.WithLogger(a.logger))
	}
	a.logger.Debug("configured",
		zap.String("format", cfg.Format),
		zap.String("transcoder", cfg.Transcoder),
		zap.String("level", cfg.Logging.Level),
	)
	return nil
}

func (a *app) codec() (*envelope.Codec, error) {
	return a.cfg.Codec()
}

func (a *app) newTranscoder() (transcode.Transcoder, error) {
	codec, err := a.codec()
	if err != nil {
		return nil, err
	}
	return transcode.New(a.cfg.Transcoder,
		transcode.WithCodec(codec),
		transcode.WithLog(a.log),
		transcode.WithEmitOptions(a.cfg.EmitOptions()),
	)
}

func main() {
	a := &app{stdin: os.Stdin}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xmlserial: %v\n", err)
		os.Exit(1)
	}
}
