package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/born-ml/gotorch/capi"
)

var inspectGraph bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectGraph, "graph", false, "print the IR graph of every method")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <script|archive>",
	Short: "List a module's methods, their schemas and buffers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := envFrom(cmd)
		if err != nil {
			return err
		}
		return inspectModule(cmd.OutOrStdout(), e.rt, args[0], inspectGraph)
	},
}

func inspectModule(w io.Writer, rt *capi.Runtime, path string, graph bool) (err error) {
	mod, err := openModule(rt, path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseModule(mod)) }()

	name, err := rt.ModuleName(mod)
	if err != nil {
		return err
	}
	methods, err := rt.MethodNames(mod)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "module %s\n", nameColor.Sprint(name))

	for _, m := range methods {
		if err := inspectMethod(w, rt, mod, m, graph); err != nil {
			return err
		}
	}

	buffers, err := rt.BufferNames(mod)
	if err != nil {
		return err
	}
	if len(buffers) == 0 {
		return nil
	}
	fmt.Fprintln(w, "buffers:")
	for _, b := range buffers {
		th, err := rt.Buffer(mod, b)
		if err != nil {
			return err
		}
		desc, err := describeTensor(rt, th)
		err = errors.Join(err, rt.ReleaseTensor(th))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %s\n", b, faintColor.Sprint(desc))
	}
	return nil
}

func inspectMethod(w io.Writer, rt *capi.Runtime, mod capi.Handle, name string, graph bool) (err error) {
	mh, err := rt.GetMethod(mod, name)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rt.ReleaseMethod(mh)) }()

	schema, err := rt.MethodSchema(mh)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  %s\n", schemaColor.Sprint(schema))
	if !graph {
		return nil
	}

	g, err := rt.MethodGraph(mh)
	if err != nil {
		return err
	}
	fmt.Fprint(w, indent(g, "    "))
	return nil
}

func indent(s, prefix string) string {
	var out []byte
	start := true
	for i := 0; i < len(s); i++ {
		if start {
			out = append(out, prefix...)
		}
		out = append(out, s[i])
		start = s[i] == '\n'
	}
	if !start {
		out = append(out, '\n')
	}
	return string(out)
}
