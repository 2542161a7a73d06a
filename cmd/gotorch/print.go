package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/born-ml/gotorch/capi"
)

var printCmd = &cobra.Command{
	Use:   "print <script|archive> [buffer...]",
	Short: "Print module buffers",
	Long:  `Print prints the named buffers of a module, or all of them when none are named.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := envFrom(cmd)
		if err != nil {
			return err
		}
		return printBuffers(cmd.OutOrStdout(), e.rt, args[0], args[1:])
	},
}

func printBuffers(w io.Writer, rt *capi.Runtime, path string, names []string) (err error) {
	mod, err := openModule(rt, path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseModule(mod)) }()

	if len(names) == 0 {
		if names, err = rt.BufferNames(mod); err != nil {
			return err
		}
	}

	hs := make([]capi.Handle, 0, len(names))
	defer func() {
		for _, h := range hs {
			err = errors.Join(err, rt.ReleaseTensor(h))
		}
	}()
	for _, name := range names {
		h, err := rt.Buffer(mod, name)
		if err != nil {
			return err
		}
		hs = append(hs, h)
	}

	for i, h := range hs {
		if _, err := labelColor.Fprintf(w, "%s:\n", names[i]); err != nil {
			return err
		}
		if err := rt.PrintAll(w, h); err != nil {
			return err
		}
	}
	if len(hs) == 0 {
		fmt.Fprintln(w, "no buffers")
	}
	return nil
}
