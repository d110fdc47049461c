// Package cli implements the toyc command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"toyc/pkg/compiler"
	"toyc/pkg/logger"
)

// rootOptions holds the persistent flags and the logger built from them.
type rootOptions struct {
	logLevel  string
	logFormat string
	logFile   string

	logger *slog.Logger
	closer io.Closer
}

// close releases the log file, if one was opened.
func (o *rootOptions) close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

func (o *rootOptions) compiler() *compiler.Compiler {
	return compiler.New(compiler.Options{Logger: o.logger})
}

// newRootCmd builds a fresh toyc command tree and the options its flags
// bind to.
func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "toyc",
		Short: "toyc compiler, inspector and runner",
		Long: `toyc compiles a small imperative language to assembly for a 16-bit
virtual CPU.

Commands:
  compile  Compile a source file to assembly (or a binary image)
  tokens   Print the token stream as JSON
  ast      Print the syntax tree as JSON
  run      Compile a source file and execute it on the virtual CPU
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			cfg := logger.DefaultConfig()
			cfg.Level = level
			cfg.Format = opts.logFormat
			cfg.Output = cmd.ErrOrStderr()
			cfg.LogFile = opts.logFile
			l, closer, err := logger.New(cfg)
			if err != nil {
				return err
			}
			opts.logger, opts.closer = l, closer
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "append logs to this file instead of stderr")

	cmd.AddCommand(
		newCompileCmd(opts),
		newTokensCmd(opts),
		newASTCmd(opts),
		newRunCmd(opts),
	)
	return cmd, opts
}

func Execute() error {
	return execute(newRootCmd())
}

// execute runs cmd and closes the log file whether or not the command
// succeeded.
func execute(cmd *cobra.Command, opts *rootOptions) error {
	defer opts.close()
	return cmd.Execute()
}
