package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toyc/pkg/cpu"
)

const defaultMaxSteps = 1_000_000

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		maxSteps int
		showAsm  bool
	)

	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Compile a source file and execute it on the virtual CPU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			assembly, machineCode, err := opts.compiler().Build(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if showAsm {
				fmt.Fprintf(cmd.ErrOrStderr(), "Generated Assembly:\n%s\n", assembly)
			}

			vm := cpu.NewCPU()
			vm.Output = cmd.OutOrStdout()
			if err := vm.Load(machineCode); err != nil {
				return err
			}
			err = vm.RunFor(maxSteps)
			opts.logger.Debug("run complete",
				"steps", vm.Steps,
				"pc", fmt.Sprintf("0x%04X", vm.PC),
				"halted", vm.Halted)
			if errors.Is(err, cpu.ErrStepLimit) {
				return fmt.Errorf("program did not halt within %d steps: %w", maxSteps, err)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", defaultMaxSteps, "abort after executing this many instructions")
	cmd.Flags().BoolVar(&showAsm, "show-asm", false, "print the generated assembly to stderr before running")
	return cmd
}
