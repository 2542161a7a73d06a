package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
)

var (
	labelColor  = color.New(color.FgCyan, color.Bold)
	nameColor   = color.New(color.FgGreen, color.Bold)
	schemaColor = color.New(color.FgYellow)
	faintColor  = color.New(color.Faint)
)

// printValue writes a result tree, labelling every node with its path,
// e.g. "result[1][0]".
func printValue(w io.Writer, rt *capi.Runtime, v boundary.Value, path string) error {
	switch v.Tag {
	case boundary.TagTensor:
		if _, err := labelColor.Fprintf(w, "%s:\n", path); err != nil {
			return err
		}
		return rt.PrintAll(w, v.Tensor)
	case boundary.TagTuple:
		if _, err := labelColor.Fprintf(w, "%s: tuple of %d\n", path, v.Len()); err != nil {
			return err
		}
		for i, elem := range v.Elements {
			if err := printValue(w, rt, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", capi.ErrInvalidTag, v.Tag)
	}
}

// describeTensor renders "float [2 3]" for h.
func describeTensor(rt *capi.Runtime, h capi.Handle) (string, error) {
	tag, err := rt.TensorDType(h)
	if err != nil {
		return "", err
	}
	dims, err := rt.TensorShape(h)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %v", tag, dims), nil
}
