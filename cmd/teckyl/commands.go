package main

import "github.com/spf13/cobra"

func newASTDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast-dump <file>...",
		Short: "parse one or more kernel files and print their ASTs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args, dumpAST)
		},
	}
}

func newInferenceDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inference-dump <file>...",
		Short: "check one or more kernel files and print their solved range problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(args, dumpInference)
		},
	}
}

func newIRDumpCmd(opts *driverOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ir-dump <file>...",
		Short: "check and lower one or more kernel files, printing the recorded IR builder trace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			irOpts, err := opts.irOptions()
			if err != nil {
				return err
			}
			return runBatch(args, func(filename string) (string, error) {
				return dumpIR(filename, irOpts)
			})
		},
	}
}
