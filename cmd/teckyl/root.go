package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go.uber.org/multierr"

	"github.com/andidr/teckyl/internal/ir"
)

// driverOptions holds the driver's flags: body-op (structured or
// loop-nest), specialize-structured-ops, and the optional config file
// path.
type driverOptions struct {
	bodyOp     string
	specialize bool
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &driverOptions{}

	root := &cobra.Command{
		Use:           "teckyl",
		Short:         "teckyl compiles Tensor Comprehensions kernels into tensor IR",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.bodyOp, "body-op", "structured", `comprehension body generation: "structured" or "loop-nest"`)
	root.PersistentFlags().BoolVar(&opts.specialize, "specialize-structured-ops", false, "specialize recognized matmul/matvec comprehensions into named ops")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "teckyl.yaml", "optional YAML file of default flag values")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return errors.Wrapf(err, "loading %s", opts.configPath)
		}
		if cfg.BodyOp != "" && !cmd.Flags().Changed("body-op") {
			opts.bodyOp = cfg.BodyOp
		}
		if cfg.Specialize && !cmd.Flags().Changed("specialize-structured-ops") {
			opts.specialize = cfg.Specialize
		}
		return nil
	}

	root.AddCommand(
		newASTDumpCmd(),
		newInferenceDumpCmd(),
		newIRDumpCmd(opts),
	)
	return root
}

// irOptions translates the driver's string/bool flags into internal/
// ir's Options; specialize-structured-ops with body-op=loop-nest is a
// fatal configuration error.
func (o *driverOptions) irOptions() (ir.Options, error) {
	var bodyOp ir.BodyOp
	switch o.bodyOp {
	case "structured":
		bodyOp = ir.Structured
	case "loop-nest":
		bodyOp = ir.LoopNest
	default:
		return ir.Options{}, fmt.Errorf("invalid --body-op %q (want structured or loop-nest)", o.bodyOp)
	}
	if o.specialize && bodyOp == ir.LoopNest {
		return ir.Options{}, fmt.Errorf("--specialize-structured-ops requires --body-op=structured")
	}
	return ir.Options{BodyOp: bodyOp, Specialize: o.specialize}, nil
}

// runBatch compiles every file in filenames concurrently, one goroutine
// per file. Each process call constructs its own Checker and generator,
// so no compiler state crosses goroutines. Results print in argument
// order regardless of completion order, and every file's error is joined
// into one returned error so the caller sees every failure from a single
// batch, not just the first.
func runBatch(filenames []string, process func(filename string) (string, error)) error {
	outputs := make([]string, len(filenames))
	errs := make([]error, len(filenames))

	var g errgroup.Group
	for i, filename := range filenames {
		i, filename := i, filename
		g.Go(func() error {
			out, err := process(filename)
			outputs[i] = out
			errs[i] = err
			return nil
		})
	}
	// g.Wait's own error is always nil: each goroutine reports its result
	// through outputs/errs instead of returning an error directly, so one
	// file's failure never cancels the others still in flight.
	_ = g.Wait()

	var combined error
	for i, out := range outputs {
		if errs[i] != nil {
			combined = multierr.Append(combined, errs[i])
			continue
		}
		fmt.Print(out)
	}
	return combined
}
