//go:build darwin || freebsd || linux || netbsd

package backend

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// NativeLoader returns the dlopen-based loader. Modules are opened with
// RTLD_NOW|RTLD_LOCAL: symbols are resolved eagerly and stay out of the
// global namespace.
func NativeLoader() Loader {
	return dlLoader{}
}

type dlLoader struct{}

func (dlLoader) Open(path string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &dlLibrary{handle: handle}, nil
}

type dlLibrary struct {
	handle uintptr
}

func (l *dlLibrary) Lookup(name string) (Symbol, bool) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil || addr == 0 {
		return Symbol{}, false
	}
	return Symbol{Addr: addr}, true
}

func (l *dlLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	h := l.handle
	l.handle = 0
	return purego.Dlclose(h)
}

func bindNative(fptr any, addr uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend: cannot bind native symbol: %v", r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}
