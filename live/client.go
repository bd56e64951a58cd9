package live

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/edsapi/backend"
)

// Option configures New.
type Option func(*options)

type options struct {
	loader backend.Loader
	dir    string
	logger *slog.Logger
}

// WithLoader replaces the native dynamic loader, typically with a simulated
// backend in tests.
func WithLoader(l backend.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithLibraryDir loads the backend from dir instead of the system search path.
func WithLibraryDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Client is a connection to an EDS live server through a version-specific
// backend.
//
// A Client must only be used from one goroutine at a time.
type Client struct {
	backend *backend.Backend
	fns     *functionTable
	version string

	// legacy is set when the backend predates agent credentials and
	// InitializeAsAgent must fall back to the deprecated init export.
	legacy bool

	conn    uintptr
	state   State
	session string
	subs    map[int32]*subscription

	logger *slog.Logger
}

// New loads the live backend of the given EDS version and binds its
// functions. The returned Client is uninitialized.
func New(version string, opts ...Option) (*Client, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	bopts := []backend.Option{backend.WithLogger(o.logger)}
	if o.loader != nil {
		bopts = append(bopts, backend.WithLoader(o.loader))
	}
	if o.dir != "" {
		bopts = append(bopts, backend.WithDir(o.dir))
	}

	b, err := backend.Load(backend.Descriptor{Type: backend.TypeLive, Version: version}, bopts...)
	if err != nil {
		return nil, err
	}

	fns, err := bindTable(b, Exports())
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", b.FileName(), err)
	}

	c := &Client{
		backend: b,
		fns:     fns,
		version: version,
		legacy:  !fns.initializeAsAgent.fn.Resolved() && fns.init.fn.Resolved(),
		subs:    make(map[int32]*subscription),
		logger:  o.logger.With("version", version),
	}

	for _, cp := range c.Capabilities() {
		if !cp.Supported {
			c.logger.Debug("export not provided", "method", cp.Method, "symbol", cp.Symbol)
		}
	}
	return c, nil
}

// Version returns the EDS version of the loaded backend.
func (c *Client) Version() string {
	return c.version
}

// FileName returns the file name of the loaded backend module.
func (c *Client) FileName() string {
	return c.backend.FileName()
}

// State returns the connection state.
func (c *Client) State() State {
	return c.state
}

// SessionID identifies the current connection in log records. It is empty
// while no connection exists.
func (c *Client) SessionID() string {
	return c.session
}

// Legacy reports whether the backend only offers the deprecated init.
func (c *Client) Legacy() bool {
	return c.legacy
}

// Capability describes whether one operation is available in the loaded
// backend.
type Capability struct {
	Method     string `json:"method"`
	Symbol     string `json:"symbol"`
	Since      string `json:"since"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Supported  bool   `json:"supported"`
}

// Capabilities lists every operation sorted by method name.
func (c *Client) Capabilities() []Capability {
	entries := c.fns.entries()
	out := make([]Capability, 0, len(entries))
	for _, b := range entries {
		e := b.export()
		out = append(out, Capability{
			Method:     e.Method,
			Symbol:     e.Symbol,
			Since:      e.Since,
			Deprecated: e.Deprecated,
			Supported:  b.resolved(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// Close shuts the connection, if any, and releases the backend. Calling
// Close again is a no-op.
func (c *Client) Close() error {
	if c.state == StateClosed {
		return nil
	}

	var errs []error
	if c.conn != 0 {
		if err := c.Shut(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut connection: %w", err))
		}
		c.disconnect(StateShut)
	}
	if err := c.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release backend: %w", err))
	}
	c.state = StateClosed
	return errors.Join(errs...)
}

// SetupLogger passes a key=value configuration string to the backend's
// logger verbatim. It is legal before initialization.
func (c *Client) SetupLogger(config string) error {
	fn, err := resolve(c, &c.fns.setupLogger)
	if err != nil {
		return err
	}
	fn(config)
	return nil
}

// Init connects with the deprecated unauthenticated initialization.
//
// Deprecated: use InitializeAsAgent or InitializeAsUser.
func (c *Client) Init(mode AccessMode, p ConnectParams) error {
	fn, err := resolve(c, &c.fns.init)
	if err != nil {
		return err
	}
	return c.connect(func(conn *uintptr) int32 {
		return fn(conn, int32(mode), p.LocalHost, p.LocalPort, p.RemoteHost, p.RemotePort, p.LocalPortRange, p.maxPacket())
	})
}

// InitializeAsAgent connects as a registered agent. Backends older than 9.2
// do not know agent credentials; on those the deprecated init is used and
// the server sees LegacyProgramName and LegacyInstanceName.
func (c *Client) InitializeAsAgent(mode AccessMode, program, instance string, p ConnectParams) error {
	if c.legacy {
		fn, err := resolve(c, &c.fns.init)
		if err != nil {
			return err
		}
		c.logger.Debug("backend has no agent credentials, using defaults",
			"program", LegacyProgramName, "instance", LegacyInstanceName)
		return c.connect(func(conn *uintptr) int32 {
			return fn(conn, int32(mode), p.LocalHost, p.LocalPort, p.RemoteHost, p.RemotePort, p.LocalPortRange, p.maxPacket())
		})
	}

	fn, err := resolve(c, &c.fns.initializeAsAgent)
	if err != nil {
		return err
	}
	return c.connect(func(conn *uintptr) int32 {
		return fn(conn, int32(mode), program, instance, p.LocalHost, p.LocalPort, p.RemoteHost, p.RemotePort, p.LocalPortRange, p.maxPacket())
	})
}

// InitializeAsUser connects with user credentials.
func (c *Client) InitializeAsUser(user, password string, p ConnectParams) error {
	fn, err := resolve(c, &c.fns.initializeAsUser)
	if err != nil {
		return err
	}
	return c.connect(func(conn *uintptr) int32 {
		return fn(conn, user, password, p.LocalHost, p.LocalPort, p.RemoteHost, p.RemotePort, p.LocalPortRange, p.maxPacket())
	})
}

func (c *Client) connect(call func(conn *uintptr) int32) error {
	if c.conn != 0 {
		// Local state is cleared even when the backend cannot shut.
		if err := c.Shut(); err != nil {
			c.logger.Debug("previous connection not shut", "session", c.session, "error", err)
		}
		c.disconnect(StateShut)
	}

	var conn uintptr
	code := ErrorCode(call(&conn))
	if code == CodeNoError && conn == 0 {
		code = CodeInvalidResult
	}

	switch {
	case code == CodeNoError:
		c.established(conn, StateActive)
		return nil
	case code.Retryable() && conn != 0:
		c.established(conn, StateConnecting)
		return &BackendError{Code: code}
	default:
		if conn != 0 {
			c.release(conn)
		}
		c.state = StateUninitialized
		return &BackendError{Code: code}
	}
}

func (c *Client) established(conn uintptr, state State) {
	c.conn = conn
	c.state = state
	c.session = newSessionID()
	c.logger.Debug("connection initialized", "session", c.session, "state", state)
}

// release frees a handle the backend produced for a failed initialization.
func (c *Client) release(conn uintptr) {
	if fn, err := resolve(c, &c.fns.shut); err == nil {
		fn(conn)
	}
}

// Shut closes the connection. Local state is cleared even when the backend
// reports an error; the client can be initialized again afterwards.
func (c *Client) Shut() error {
	fn, conn, err := dispatch(c, &c.fns.shut)
	if err != nil {
		return err
	}
	code := fn(conn)
	c.logger.Debug("connection shut", "session", c.session)
	c.disconnect(StateShut)
	return codeError(code)
}

func (c *Client) disconnect(state State) {
	c.conn = 0
	c.session = ""
	clear(c.subs)
	c.state = state
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
