package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"toyc/pkg/compiler"
	"toyc/pkg/inspect"
)

func newTokensCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <input>",
		Short: "Print the token stream as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens, diags := compiler.Tokenize(src)
			for _, d := range diags {
				opts.logger.Warn(d.Message, "line", d.Line, "column", d.Column)
			}
			data, err := inspect.Tokens(tokens)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newASTCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ast <input>",
		Short: "Print the syntax tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			prog, err := opts.compiler().Parse(src)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			data, err := inspect.AST(prog)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
