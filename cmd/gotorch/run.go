package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/dtype"
)

var (
	runInputs []string
	runDType  string
)

func init() {
	runCmd.Flags().StringArrayVarP(&runInputs, "input", "i", nil, `positional input as JSON, e.g. '[[1,2],[3,4]]' or '{"tuple": [[1],[2]]}' (repeatable)`)
	runCmd.Flags().StringVar(&runDType, "dtype", "float", "scalar type of input tensors (byte|char|short|int|long|half|float|double)")
}

var runCmd = &cobra.Command{
	Use:   "run <script|archive> <method>",
	Short: "Run a module method on JSON inputs and print the result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := envFrom(cmd)
		if err != nil {
			return err
		}
		tag, err := dtype.Parse(runDType)
		if err != nil {
			return err
		}
		return runMethod(cmd.OutOrStdout(), e.rt, args[0], args[1], runInputs, tag)
	},
}

// runMethod opens the module at path, runs method on the parsed inputs
// and prints the result tree to w. Every handle it creates is released.
func runMethod(w io.Writer, rt *capi.Runtime, path, method string, inputs []string, tag capi.Tag) (err error) {
	mod, err := openModule(rt, path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseModule(mod)) }()

	mh, err := rt.GetMethod(mod, method)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseMethod(mh)) }()

	values := make([]boundary.Value, 0, len(inputs))
	defer func() {
		for _, v := range values {
			err = errors.Join(err, rt.FreeValue(v))
		}
	}()
	for i, s := range inputs {
		v, err := parseInput(rt, s, tag)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		values = append(values, v)
	}

	out, err := rt.RunMethod(mh, values)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.FreeValue(out)) }()

	return printValue(w, rt, out, "result")
}
