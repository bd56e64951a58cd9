package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ReadOptions holds flags for the read command.
type ReadOptions struct {
	*RootOptions
	backendFlags
	Config string
}

// ReadResult is the JSON payload of the read command.
type ReadResult struct {
	Session string        `json:"session"`
	Points  []PointSample `json:"points"`
	Missing []string      `json:"missing,omitempty"`
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read --config FILE [IESS...]",
		Short: "Read current point values",
		Long: `Connect with a profile, subscribe to points as inputs, synchronize
once and print their values. Without IESS arguments the profile's inputs
are read.

Exit codes:
  0 - All points read
  1 - A point does not exist or a backend call failed
  2 - Bad profile or backend not found

Examples:
  edsctl read --config plant.yaml A1 A2
  edsctl read --config plant.toml --stub points.yaml --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, opts, args)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "connection profile (.yaml, .yml or .toml)")

	return cmd
}

func runRead(cmd *cobra.Command, opts *ReadOptions, names []string) error {
	f := opts.formatter(cmd)

	profile, err := loadProfile(f, opts.Config)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = profile.Inputs
	}
	if len(names) == 0 {
		return f.FailCode(ExitCommandError, CodeConfig, "nothing to read", fmt.Errorf("no points given and profile has no inputs"))
	}

	client, _, err := opts.open(profile.Version, profile.LibDir, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return f.Fail(ExitCommandError, "failed to load backend", err)
	}
	defer client.Close()

	if err := connect(client, profile); err != nil {
		return f.Fail(ExitFailure, "failed to connect", err)
	}
	f.VerboseLog("connected to %s:%d, session %s", profile.RemoteHost, profile.RemotePort, client.SessionID())

	lids, missing, err := subscribe(client, names, client.SetInput)
	if err != nil {
		return f.Fail(ExitFailure, "failed to subscribe", err)
	}
	if err := synchronize(cmd.Context(), client, time.Duration(profile.Interval)); err != nil {
		return f.Fail(ExitFailure, "failed to synchronize", err)
	}

	res := ReadResult{Session: client.SessionID(), Points: []PointSample{}, Missing: missing}
	for _, name := range names {
		lid, ok := lids[name]
		if !ok {
			continue
		}
		s, err := sample(client, lid)
		if err != nil {
			return f.Fail(ExitFailure, fmt.Sprintf("failed to read %s", name), err)
		}
		res.Points = append(res.Points, s)
	}

	if err := f.Emit(res, func(w io.Writer) {
		for _, s := range res.Points {
			fmt.Fprintln(w, s)
		}
		for _, name := range res.Missing {
			fmt.Fprintf(w, "point %s not found\n", name)
		}
	}); err != nil {
		return err
	}

	if len(missing) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("points not found: %s", strings.Join(missing, ", ")))
	}
	return nil
}
