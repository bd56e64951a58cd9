package backend

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
)

// Loader opens backend modules. NativeLoader is the host implementation.
type Loader interface {
	// Open loads the module at path. The returned error text is used
	// verbatim as the NotFoundError diagnostic.
	Open(path string) (Library, error)
}

// Library is a loaded module.
type Library interface {
	// Lookup resolves an export by name. A missing export returns false.
	Lookup(name string) (Symbol, bool)

	// Close unloads the module.
	Close() error
}

// Symbol is a resolved export: either the address of a native function or an
// in-process Go implementation.
type Symbol struct {
	Addr uintptr
	Func any
}

func (s Symbol) valid() bool {
	return s.Addr != 0 || s.Func != nil
}

// Option configures Load.
type Option func(*options)

type options struct {
	loader Loader
	dir    string
	logger *slog.Logger
}

// WithLoader replaces the native dynamic loader.
func WithLoader(l Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithDir loads the module from dir instead of the standard search path.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Backend owns exactly one loaded module.
//
// A Backend is not safe for concurrent use.
type Backend struct {
	desc     Descriptor
	fileName string
	lib      Library
	released bool
	logger   *slog.Logger
}

// Load derives the module file name from desc, loads it, and returns the
// owning Backend. Any failure is reported as a *NotFoundError and leaves
// nothing loaded.
func Load(desc Descriptor, opts ...Option) (*Backend, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		o.loader = NativeLoader()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	fileName := desc.FileName()
	path := fileName
	if o.dir != "" {
		path = filepath.Join(o.dir, fileName)
	}

	lib, err := o.loader.Open(path)
	if err != nil {
		return nil, &NotFoundError{
			FileName:   fileName,
			Type:       desc.Type,
			Version:    desc.Version,
			Diagnostic: err.Error(),
		}
	}
	if lib == nil {
		return nil, &NotFoundError{
			FileName:   fileName,
			Type:       desc.Type,
			Version:    desc.Version,
			Diagnostic: "loader returned no module",
		}
	}

	if others := loaded.acquire(desc); len(others) > 0 {
		o.logger.Warn("backends of different versions loaded in one process",
			"type", desc.Type, "version", desc.Version, "others", others)
	}
	o.logger.Debug("backend loaded", "file", path, "type", desc.Type, "version", desc.Version)

	return &Backend{
		desc:     desc,
		fileName: fileName,
		lib:      lib,
		logger:   o.logger,
	}, nil
}

// Descriptor returns the identity the backend was loaded for.
func (b *Backend) Descriptor() Descriptor {
	return b.desc
}

// FileName returns the derived module file name.
func (b *Backend) FileName() string {
	return b.fileName
}

// Released reports whether Close has been called.
func (b *Backend) Released() bool {
	return b.released
}

// Resolve looks up an export. Absence is not an error: it means the backend
// version does not provide the export. A null address counts as absent, and
// after Close every export is absent.
func (b *Backend) Resolve(name string) (Symbol, bool) {
	if b.released {
		return Symbol{}, false
	}
	sym, ok := b.lib.Lookup(name)
	if !ok || !sym.valid() {
		return Symbol{}, false
	}
	return sym, true
}

// Close releases the module. Functions bound from this Backend must not be
// called afterwards; Function.Get enforces that. Closing twice is a no-op.
func (b *Backend) Close() error {
	if b.released {
		return nil
	}
	b.released = true
	loaded.release(b.desc)
	if err := b.lib.Close(); err != nil {
		return fmt.Errorf("failed to unload %s: %w", b.fileName, err)
	}
	b.logger.Debug("backend released", "file", b.fileName)
	return nil
}

// loaded counts live Backends per type and version across the process.
var loaded = &versionRegistry{counts: make(map[Descriptor]int)}

type versionRegistry struct {
	mu     sync.Mutex
	counts map[Descriptor]int
}

// acquire records desc and returns the other versions of the same type
// currently loaded.
func (r *versionRegistry) acquire(desc Descriptor) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var others []string
	for d, n := range r.counts {
		if n > 0 && d.Type == desc.Type && d.Version != desc.Version {
			others = append(others, d.Version)
		}
	}
	r.counts[desc]++
	slices.Sort(others)
	return others
}

func (r *versionRegistry) release(desc Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counts[desc] <= 1 {
		delete(r.counts, desc)
		return
	}
	r.counts[desc]--
}
