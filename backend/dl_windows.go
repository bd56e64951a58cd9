//go:build windows

package backend

import (
	"fmt"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// NativeLoader returns the LoadLibrary-based loader.
func NativeLoader() Loader {
	return dllLoader{}
}

type dllLoader struct{}

func (dllLoader) Open(path string) (Library, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	return &dllLibrary{handle: handle}, nil
}

type dllLibrary struct {
	handle windows.Handle
}

func (l *dllLibrary) Lookup(name string) (Symbol, bool) {
	addr, err := windows.GetProcAddress(l.handle, name)
	if err != nil || addr == 0 {
		return Symbol{}, false
	}
	return Symbol{Addr: addr}, true
}

func (l *dllLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	h := l.handle
	l.handle = 0
	return windows.FreeLibrary(h)
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
