package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/edsapi/live"
)

// ProbeOptions holds flags for the probe command.
type ProbeOptions struct {
	*RootOptions
	backendFlags
}

// ProbeResult is the JSON payload of the probe command.
type ProbeResult struct {
	Version      string            `json:"version"`
	FileName     string            `json:"file_name"`
	Legacy       bool              `json:"legacy"`
	Supported    int               `json:"supported"`
	Capabilities []live.Capability `json:"capabilities"`
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProbeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "probe <version>",
		Short: "Load a backend and list the operations it supports",
		Long: `Load the live backend of an EDS version and report, for every
operation, the export it maps to, the first EDS version providing it and
whether the loaded module has it.

Exit codes:
  0 - Backend loaded
  2 - Backend not found or incompatible

Examples:
  edsctl probe 9.2
  edsctl probe 7.2 --lib-dir /opt/eds/lib
  edsctl probe 9.2 --stub points.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, opts, args[0])
		},
	}
	opts.register(cmd)

	return cmd
}

func runProbe(cmd *cobra.Command, opts *ProbeOptions, version string) error {
	f := opts.formatter(cmd)

	client, _, err := opts.open(version, "", opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return f.Fail(ExitCommandError, "failed to load backend", err)
	}
	defer client.Close()

	res := ProbeResult{
		Version:      client.Version(),
		FileName:     client.FileName(),
		Legacy:       client.Legacy(),
		Capabilities: client.Capabilities(),
	}
	for _, cp := range res.Capabilities {
		if cp.Supported {
			res.Supported++
		}
	}

	return f.Emit(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s (EDS %s): %d of %d operations supported\n",
			res.FileName, res.Version, res.Supported, len(res.Capabilities))
		if res.Legacy {
			fmt.Fprintf(w, "agent initialization uses default credentials %s/%s\n",
				live.LegacyProgramName, live.LegacyInstanceName)
		}
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tSYMBOL\tSINCE\tSUPPORTED")
		for _, cp := range res.Capabilities {
			supported := "yes"
			if !cp.Supported {
				supported = "no"
			}
			if cp.Deprecated {
				supported += " (deprecated)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cp.Method, cp.Symbol, cp.Since, supported)
		}
		tw.Flush()
	})
}
