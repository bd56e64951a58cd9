package stub

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/roach88/edsapi/backend"
)

type registration struct {
	server *Server
	omit   []string
}

// Loader serves stub servers as backend modules. It implements
// backend.Loader; modules are found by their derived file name.
type Loader struct {
	platform backend.Platform
	modules  map[string]registration
	opens    int
	closes   int
}

// NewLoader returns a loader using the host platform's file naming.
func NewLoader() *Loader {
	return &Loader{
		platform: backend.HostPlatform(),
		modules:  make(map[string]registration),
	}
}

// Register serves srv as the live backend of version. Exports named in
// omit are missing from the module, as in older backends.
func (l *Loader) Register(version string, srv *Server, omit ...string) {
	desc := backend.Descriptor{Type: backend.TypeLive, Version: version}
	l.modules[desc.FileNameFor(l.platform)] = registration{server: srv, omit: omit}
}

// Opens returns the number of successful Open calls.
func (l *Loader) Opens() int {
	return l.opens
}

// Closes returns the number of module Close calls.
func (l *Loader) Closes() int {
	return l.closes
}

// Loaded reports whether a module is open.
func (l *Loader) Loaded() bool {
	return l.opens > l.closes
}

// Open implements backend.Loader.
func (l *Loader) Open(path string) (backend.Library, error) {
	reg, ok := l.modules[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: No such file or directory", path)
	}
	l.opens++

	symbols := make(map[string]any)
	for name, fn := range reg.server.exports() {
		if !slices.Contains(reg.omit, name) {
			symbols[name] = fn
		}
	}
	return &library{loader: l, symbols: symbols}, nil
}

type library struct {
	loader  *Loader
	symbols map[string]any
	closed  bool
}

func (m *library) Lookup(name string) (backend.Symbol, bool) {
	if m.closed {
		return backend.Symbol{}, false
	}
	fn, ok := m.symbols[name]
	if !ok {
		return backend.Symbol{}, false
	}
	return backend.Symbol{Func: fn}, true
}

func (m *library) Close() error {
	if m.closed {
		return errors.New("module already closed")
	}
	m.closed = true
	m.loader.closes++
	return nil
}
