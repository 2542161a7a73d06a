package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version can be overridden at build time via -ldflags.
var version = "v0.1.0-dev"

type versionPayload struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Go      string `json:"go"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the gotorch version",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout())
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout())
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func renderVersionPretty(w io.Writer) {
	fmt.Fprintf(w, "gotorch %s (%s)\n", color.New(color.FgYellow, color.Bold).Sprint(version), runtime.Version())
}

func renderVersionJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(versionPayload{Tool: "gotorch", Version: version, Go: runtime.Version()})
}
