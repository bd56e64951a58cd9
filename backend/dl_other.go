//go:build !(darwin || freebsd || linux || netbsd || windows)

package backend

import (
	"fmt"
	"runtime"
)

// NativeLoader returns a loader that always fails: this system has no
// supported dynamic module API.
func NativeLoader() Loader {
	return unsupportedLoader{}
}

type unsupportedLoader struct{}

func (unsupportedLoader) Open(path string) (Library, error) {
	return nil, fmt.Errorf("dynamic modules are not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}

func bindNative(fptr any, addr uintptr) error {
	return fmt.Errorf("backend: native symbols are not supported on %s", runtime.GOOS)
}
