package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/edsapi/internal/config"
	"github.com/roach88/edsapi/internal/stub"
	"github.com/roach88/edsapi/live"
)

// Agent credentials used when a profile names none.
const (
	defaultProgram  = "edsctl"
	defaultInstance = "default"
)

// syncAttempts bounds how often a retryable synchronization is repeated.
const syncAttempts = 50

// backendFlags select where a backend module comes from.
type backendFlags struct {
	LibDir string
	Stub   string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.LibDir, "lib-dir", "", "directory holding backend libraries (default: system search path)")
	cmd.Flags().StringVar(&f.Stub, "stub", "", "serve a simulated backend holding the points of this fixture file")
}

// open loads the live backend of version. With --stub the backend is the
// in-process simulator; otherwise the native library is loaded from
// --lib-dir, the profile's lib_dir or the system search path.
func (f *backendFlags) open(version, profileDir string, logger *slog.Logger) (*live.Client, *stub.Server, error) {
	opts := []live.Option{live.WithLogger(logger)}

	var srv *stub.Server
	switch {
	case f.Stub != "":
		points, err := stub.LoadFixture(f.Stub)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to load stub fixture", err)
		}
		srv = stub.NewServer(points...)
		loader := stub.NewLoader()
		loader.Register(version, srv)
		opts = append(opts, live.WithLoader(loader))
	case f.LibDir != "":
		opts = append(opts, live.WithLibraryDir(f.LibDir))
	case profileDir != "":
		opts = append(opts, live.WithLibraryDir(profileDir))
	}

	c, err := live.New(version, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, srv, nil
}

// loadProfile reads the --config file.
func loadProfile(f *OutputFormatter, path string) (*config.Profile, error) {
	if path == "" {
		return nil, f.FailCode(ExitCommandError, CodeConfig, "missing profile", fmt.Errorf("--config is required"))
	}
	p, err := config.Load(path)
	if err != nil {
		return nil, f.FailCode(ExitCommandError, CodeConfig, "invalid profile", err)
	}
	return p, nil
}

func accessMode(access string) live.AccessMode {
	switch access {
	case "read":
		return live.AccessRead
	case "write":
		return live.AccessWrite
	default:
		return live.AccessReadWrite
	}
}

// connect initializes c with the profile's credentials. A connection still
// logging in counts as success; synchronize waits for it.
func connect(c *live.Client, p *config.Profile) error {
	if p.Logger != "" {
		if err := c.SetupLogger(p.Logger); err != nil && !live.IsUnsupported(err) {
			return fmt.Errorf("failed to set up backend logger: %w", err)
		}
	}

	params := live.ConnectParams{
		LocalHost:      p.LocalHost,
		LocalPort:      p.LocalPort,
		LocalPortRange: p.LocalPortRange,
		RemoteHost:     p.RemoteHost,
		RemotePort:     p.RemotePort,
		MaxPacket:      p.MaxPacket,
	}

	var err error
	if p.User != "" {
		err = c.InitializeAsUser(p.User, p.Password, params)
	} else {
		program, instance := p.Program, p.Instance
		if program == "" {
			program = defaultProgram
		}
		if instance == "" {
			instance = defaultInstance
		}
		err = c.InitializeAsAgent(accessMode(p.Access), program, instance, params)
	}
	if err != nil && !live.IsRetryable(err) {
		return err
	}
	return nil
}

// synchronize downloads input values, repeating retryable failures every
// interval.
func synchronize(ctx context.Context, c *live.Client, interval time.Duration) error {
	var err error
	for range syncAttempts {
		err = c.SynchronizeInput()
		if err == nil || !live.IsRetryable(err) {
			return err
		}
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// subscribe finds each point and registers it with set. Points that do not
// exist are returned in missing.
func subscribe(c *live.Client, names []string, set func(int32) error) (lids map[string]int32, missing []string, err error) {
	lids = make(map[string]int32, len(names))
	for _, name := range names {
		lid, err := c.FindByIESS(name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find %s: %w", name, err)
		}
		if lid == live.NoPoint {
			missing = append(missing, name)
			continue
		}
		if err := set(lid); err != nil {
			return nil, nil, fmt.Errorf("failed to subscribe %s: %w", name, err)
		}
		lids[name] = lid
	}
	return lids, missing, nil
}

// PointSample is one point value as printed by read and demo.
type PointSample struct {
	LID     int32   `json:"lid"`
	IESS    string  `json:"iess"`
	Value   float64 `json:"value"`
	Quality string  `json:"quality"`
	ST      uint32  `json:"st"`
	Unit    string  `json:"unit,omitempty"`

	// Scale bottom and top, when the point defines them.
	BB *float64 `json:"bb,omitempty"`
	TB *float64 `json:"tb,omitempty"`
}

func (s PointSample) String() string {
	line := fmt.Sprintf("lid=%d IESS=%s value=%f%s ST=0x%08X", s.LID, s.IESS, s.Value, s.Quality, s.ST)
	if s.Unit != "" {
		line += " [" + s.Unit + "]"
	}
	if s.BB != nil {
		line += fmt.Sprintf(" BB=%f", *s.BB)
	}
	if s.TB != nil {
		line += fmt.Sprintf(" TB=%f", *s.TB)
	}
	return line
}

// sample reads a point's value in the representation its record type
// calls for, together with its ST word and, if known, its engineering unit
// and scale.
func sample(c *live.Client, lid int32) (PointSample, error) {
	s := PointSample{LID: lid}

	iess, err := c.ReadFieldStringByName(lid, "IESS")
	if err != nil {
		return s, err
	}
	s.IESS = iess

	rt, err := c.PointRT(lid)
	if err != nil {
		return s, err
	}

	var q live.Quality
	switch rt {
	case live.PointBinary:
		var v bool
		v, q, err = c.ReadBinary(lid)
		if v {
			s.Value = 1
		}
	case live.PointPacked:
		var v uint32
		v, q, err = c.ReadPacked(lid)
		s.Value = float64(v)
	case live.PointDouble:
		s.Value, q, err = c.ReadDouble(lid)
	case live.PointInt64:
		var v int64
		v, q, err = c.ReadInt64(lid)
		s.Value = float64(v)
	default:
		var v float32
		v, q, err = c.ReadAnalog(lid)
		s.Value = float64(v)
	}
	if err != nil {
		return s, err
	}
	s.Quality = q.String()

	st, err := c.ReadFieldIntByName(lid, "ST")
	if err != nil {
		return s, err
	}
	s.ST = uint32(st)

	if unit, err := c.ReadFieldStringByName(lid, "UN"); err == nil {
		s.Unit = unit
	}
	if bb, err := c.ReadFieldDoubleByName(lid, "BB"); err == nil {
		s.BB = &bb
	}
	if tb, err := c.ReadFieldDoubleByName(lid, "TB"); err == nil {
		s.TB = &tb
	}
	return s, nil
}
