package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/edsapi/internal/config"
	"github.com/roach88/edsapi/live"
)

// Masks used by the demo's status writes. The ST mask leaves the bits
// writers cannot set untouched.
const (
	demoSTMask  uint32 = 0x4000FFFF
	demoXSTMask uint32 = 0x0000FFFF
)

// demoToggleEvery is the number of iterations between alarm toggles.
const demoToggleEvery = 10

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	backendFlags
	Config string
}

// DemoIteration is the JSON record printed for every demo iteration.
type DemoIteration struct {
	Iteration int           `json:"iteration"`
	Status    uint32        `json:"status"`
	Inputs    []PointSample `json:"inputs"`
	Outputs   []PointSample `json:"outputs"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo --config FILE",
		Short: "Run the example read/write loop",
		Long: `Subscribe to the profile's inputs, originate its outputs and run
iterations of: synchronize inputs, print them, write a random value to every
output and upload it. Every 10 iterations the outputs' alarm status (ST,
XST1 and AT) toggles between "alarm on, high" and clear.

Examples:
  edsctl demo --config plant.yaml
  edsctl demo --config plant.yaml --stub points.yaml -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "connection profile (.yaml, .yml or .toml)")

	return cmd
}

// demo holds the state of one demo run.
type demo struct {
	client  *live.Client
	profile *config.Profile
	out     *OutputFormatter
	logger  *slog.Logger

	inputs  []int32
	outputs []int32

	status     uint32
	lastStatus uint32
	at         uint32
}

func runDemo(cmd *cobra.Command, opts *DemoOptions) error {
	f := opts.formatter(cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	profile, err := loadProfile(f, opts.Config)
	if err != nil {
		return err
	}

	client, _, err := opts.open(profile.Version, profile.LibDir, logger)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to load backend", err)
	}
	defer client.Close()

	if err := connect(client, profile); err != nil {
		return f.Fail(ExitFailure, "failed to connect", err)
	}

	d := &demo{
		client:  client,
		profile: profile,
		out:     f,
		logger:  logger.With("session", client.SessionID()),
		status:  uint32(live.StAlarmOn | live.StAlarmHigh),
		at:      uint32(time.Now().Unix()),
	}

	inputs, missing, err := subscribe(client, profile.Inputs, client.SetInput)
	if err != nil {
		return f.Fail(ExitFailure, "failed to subscribe inputs", err)
	}
	outputs, missingOut, err := subscribe(client, profile.Outputs, client.SetOutput)
	if err != nil {
		return f.Fail(ExitFailure, "failed to originate outputs", err)
	}
	if missing = append(missing, missingOut...); len(missing) > 0 {
		return f.FailCode(ExitFailure, CodePointNotFound, "points not found", fmt.Errorf("%v", missing))
	}
	for _, name := range profile.Inputs {
		d.inputs = append(d.inputs, inputs[name])
	}
	for _, name := range profile.Outputs {
		d.outputs = append(d.outputs, outputs[name])
	}

	return d.run(cmd.Context())
}

func (d *demo) run(ctx context.Context) error {
	interval := time.Duration(d.profile.Interval)
	for i := 0; i < d.profile.Iterations; i++ {
		rec, err := d.iterate(ctx, i)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return d.out.Fail(ExitFailure, fmt.Sprintf("iteration %d failed", i), err)
		}

		if err := d.out.Emit(rec, func(w io.Writer) { d.print(w, rec) }); err != nil {
			return err
		}

		if i < d.profile.Iterations-1 {
			if err := sleep(ctx, interval); err != nil {
				return nil
			}
		}
	}
	return nil
}

func (d *demo) iterate(ctx context.Context, i int) (DemoIteration, error) {
	rec := DemoIteration{Iteration: i, Inputs: []PointSample{}, Outputs: []PointSample{}}

	// Input failures are reported and the loop goes on with stale values.
	if err := synchronize(ctx, d.client, time.Duration(d.profile.Interval)); err != nil {
		if errors.Is(err, context.Canceled) {
			return rec, err
		}
		d.logger.Warn("failed to synchronize inputs", "iteration", i, "error", err)
	}
	for _, lid := range d.inputs {
		s, err := sample(d.client, lid)
		if err != nil {
			d.logger.Warn("failed to read input", "lid", lid, "error", err)
			continue
		}
		rec.Inputs = append(rec.Inputs, s)
	}

	if i%demoToggleEvery == 0 {
		d.at = uint32(time.Now().Unix())
		if d.status&uint32(live.StAlarmOn) != 0 {
			d.status = 0
		} else {
			d.status = uint32(live.StAlarmOn | live.StAlarmHigh)
		}
	}
	rec.Status = d.status

	for _, lid := range d.outputs {
		if err := d.write(lid); err != nil {
			return rec, err
		}
	}
	d.lastStatus = d.status

	if err := d.client.SynchronizeOutput(); err != nil {
		d.logger.Warn("failed to synchronize outputs", "iteration", i, "error", err)
	}
	for _, lid := range d.outputs {
		s, err := sample(d.client, lid)
		if err != nil {
			d.logger.Warn("failed to read output", "lid", lid, "error", err)
			continue
		}
		rec.Outputs = append(rec.Outputs, s)
	}
	return rec, nil
}

// write stores a random value and, when the status changed, the new
// status words and alarm time. Status functions missing from old backends
// are skipped.
func (d *demo) write(lid int32) error {
	if err := d.client.WriteAnalog(lid, rand.Float32(), live.QualityGood); err != nil {
		return err
	}
	if d.status == d.lastStatus {
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"ST", func() error { return d.client.WriteST(lid, d.status, demoSTMask) }},
		{"XST1", func() error { return d.client.WriteXSTn(lid, 1, d.status, demoXSTMask) }},
		{"AT", func() error { return d.client.WriteAT(lid, d.at, 0) }},
	}
	for _, step := range steps {
		err := step.fn()
		if live.IsUnsupported(err) {
			d.logger.Debug("status write skipped", "field", step.name, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", step.name, err)
		}
	}
	return nil
}

func (d *demo) print(w io.Writer, rec DemoIteration) {
	fmt.Fprintln(w, "------------------------------------------------")
	for _, s := range rec.Inputs {
		fmt.Fprintln(w, s)
	}
	for _, s := range rec.Outputs {
		fmt.Fprintln(w, s)
	}
}
