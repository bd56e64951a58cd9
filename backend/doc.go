// Package backend loads version-specific EDS backend modules and binds their
// exports to typed Go functions.
//
// A backend is a shared library implementing the wire protocol for one EDS
// server version. Its file name is derived from a Descriptor:
//
//	libedsapi_live_9_2.so   (POSIX)
//	edsapi_live_9_2.dll     (Windows)
//
// # Loading
//
// Load opens the module through a Loader. NativeLoader uses the host dynamic
// linker: the library is searched on the standard library path, its symbols
// are resolved eagerly and kept private to the module (RTLD_NOW|RTLD_LOCAL on
// POSIX). Tests and tools substitute an in-process Loader whose symbols are
// plain Go functions.
//
// # Binding
//
// Bind resolves an export once and caches the result in a Function. An absent
// export is a normal outcome (the backend version does not support it) and is
// reported by Function.Get without ever producing a callable value. After the
// owning Backend is closed, every Function bound to it reports ErrReleased.
//
// # Known constraint
//
// Several Backends for the same version may coexist. Loading backends of two
// different versions into one process is not supported by the legacy backend
// modules, whose dynamic-loading code is not reentrant across versions. Load
// logs a warning when it sees this; it does not prevent it.
package backend
