package backend

import (
	"runtime"
	"strings"
)

// TypeLive is the module type of live data backends.
const TypeLive = "live"

// Descriptor identifies a backend module: its type tag and the dotted
// protocol version it implements.
type Descriptor struct {
	Type    string
	Version string
}

// Platform holds the file name decoration used by the host's shared
// library convention.
type Platform struct {
	Prefix string
	Suffix string
}

// PlatformFor returns the decoration for the given GOOS.
// Windows uses "edsapi_" + ".dll"; every other system uses "libedsapi_" + ".so".
func PlatformFor(goos string) Platform {
	if goos == "windows" {
		return Platform{Prefix: "edsapi_", Suffix: ".dll"}
	}
	return Platform{Prefix: "libedsapi_", Suffix: ".so"}
}

// HostPlatform returns the decoration for the running system.
func HostPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

// FileName returns the module file name on the running system.
func (d Descriptor) FileName() string {
	return d.FileNameFor(HostPlatform())
}

// FileNameFor returns prefix + type + "_" + version + suffix, with every '.'
// in the version replaced by '_'. No other character is altered.
func (d Descriptor) FileNameFor(p Platform) string {
	var b strings.Builder
	b.Grow(len(p.Prefix) + len(d.Type) + 1 + len(d.Version) + len(p.Suffix))
	b.WriteString(p.Prefix)
	b.WriteString(d.Type)
	b.WriteByte('_')
	b.WriteString(strings.ReplaceAll(d.Version, ".", "_"))
	b.WriteString(p.Suffix)
	return b.String()
}

func (d Descriptor) String() string {
	return d.Type + "@" + d.Version
}
