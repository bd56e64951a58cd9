package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/edsapi/backend"
)

// FileNameOptions holds flags for the filename command.
type FileNameOptions struct {
	*RootOptions
	Type string
	GOOS string
}

// FileNameResult is the JSON payload of the filename command.
type FileNameResult struct {
	Type     string `json:"type"`
	Version  string `json:"version"`
	GOOS     string `json:"goos"`
	FileName string `json:"file_name"`
}

// NewFileNameCommand creates the filename command.
func NewFileNameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FileNameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filename <version>",
		Short: "Print the backend file name for an EDS version",
		Long: `Print the file name a backend module for the given EDS version has.

Examples:
  edsctl filename 9.2
  edsctl filename 9.2 --goos windows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			if args[0] == "" {
				return f.FailCode(ExitCommandError, CodeConfig, "invalid version", fmt.Errorf("version must not be empty"))
			}

			desc := backend.Descriptor{Type: opts.Type, Version: args[0]}
			res := FileNameResult{
				Type:     opts.Type,
				Version:  args[0],
				GOOS:     opts.GOOS,
				FileName: desc.FileNameFor(backend.PlatformFor(opts.GOOS)),
			}
			return f.Emit(res, func(w io.Writer) {
				fmt.Fprintln(w, res.FileName)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", backend.TypeLive, "backend type")
	cmd.Flags().StringVar(&opts.GOOS, "goos", runtime.GOOS, "target operating system")

	return cmd
}
