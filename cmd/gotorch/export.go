package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/dtype"
)

var (
	exportBuffers []string
	exportDType   string
)

func init() {
	exportCmd.Flags().StringArrayVarP(&exportBuffers, "buffer", "b", nil, "set a module buffer before export, as name=JSON (repeatable)")
	exportCmd.Flags().StringVar(&exportDType, "dtype", "float", "scalar type of buffer tensors")
}

var exportCmd = &cobra.Command{
	Use:   "export <script|archive> <out.born>",
	Short: "Write a module and its buffers to an archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := envFrom(cmd)
		if err != nil {
			return err
		}
		tag, err := dtype.Parse(exportDType)
		if err != nil {
			return err
		}
		if err := exportModule(e.rt, args[0], args[1], exportBuffers, tag); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", nameColor.Sprint(args[1]))
		return nil
	},
}

func exportModule(rt *capi.Runtime, src, dst string, buffers []string, tag capi.Tag) (err error) {
	mod, err := openModule(rt, src)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseModule(mod)) }()

	for _, b := range buffers {
		if err := setBuffer(rt, mod, b, tag); err != nil {
			return err
		}
	}
	return rt.ExportModule(mod, dst)
}

// setBuffer applies one name=JSON assignment.
func setBuffer(rt *capi.Runtime, mod capi.Handle, assign string, tag capi.Tag) error {
	name, value, ok := strings.Cut(assign, "=")
	if !ok || name == "" {
		return fmt.Errorf("buffer %q: expected name=JSON", assign)
	}

	v, err := parseInput(rt, value, tag)
	if err != nil {
		return fmt.Errorf("buffer %s: %w", name, err)
	}
	if v.Tag != boundary.TagTensor {
		return errors.Join(fmt.Errorf("buffer %s: must be a tensor", name), rt.FreeValue(v))
	}
	return errors.Join(rt.SetBuffer(mod, name, v.Tensor), rt.ReleaseTensor(v.Tensor))
}
