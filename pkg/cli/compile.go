package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCompileCmd(opts *rootOptions) *cobra.Command {
	var binary bool

	cmd := &cobra.Command{
		Use:   "compile <input> [output]",
		Short: "Compile a source file to assembly",
		Long: `Compile reads the whole input file and writes the generated assembly to
output, or to standard output when no output file is given.

With --binary the assembly is also assembled and the machine-code image is
written to output (default: the input path with a .bin extension).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}

			if binary {
				_, machineCode, err := opts.compiler().Build(src)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				out := defaultBinaryPath(args[0])
				if len(args) == 2 {
					out = args[1]
				}
				if err := writeOutput(out, machineCode); err != nil {
					return err
				}
				opts.logger.Info("wrote binary", "path", out, "bytes", len(machineCode))
				fmt.Fprintf(cmd.OutOrStdout(), "assembled %d bytes -> %s\n", len(machineCode), out)
				return nil
			}

			assembly, err := opts.compiler().Compile(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if len(args) == 2 {
				if err := writeOutput(args[1], []byte(assembly)); err != nil {
					return err
				}
				opts.logger.Info("wrote assembly", "path", args[1], "bytes", len(assembly))
				return nil
			}
			_, err = io.WriteString(cmd.OutOrStdout(), assembly)
			return err
		},
	}

	cmd.Flags().BoolVarP(&binary, "binary", "b", false, "assemble and write a machine-code image")
	return cmd
}
