package live

// AccessMode selects whether a connection receives values, sends them, or both.
type AccessMode int32

const (
	AccessRead      AccessMode = 0x01
	AccessWrite     AccessMode = 0x10
	AccessReadWrite AccessMode = AccessRead | AccessWrite
)

func (m AccessMode) String() string {
	switch m {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "readwrite"
	default:
		return "invalid"
	}
}

// PointType is the record type of a process point.
type PointType byte

const (
	PointAnalog PointType = 'A'
	PointBinary PointType = 'B'
	PointPacked PointType = 'P'
	PointDouble PointType = 'D'
	PointInt64  PointType = 'I'
)

// ArchiveType is the archiving mode of a process point.
type ArchiveType byte

const (
	ArchiveNone     ArchiveType = 'N'
	ArchiveLongTerm ArchiveType = 'L'
	ArchiveExternal ArchiveType = 'E'
	ArchiveFillIn   ArchiveType = 'F'
)

// Quality is the quality letter attached to a point value.
//
// Backends normally return one of the constants below, but future versions
// may return other letters; they are passed through.
type Quality byte

const (
	QualityGood Quality = 'G'
	QualityFair Quality = 'F'
	QualityPoor Quality = 'P'
	QualityBad  Quality = 'B'
)

func (q Quality) String() string {
	return string(rune(q))
}

// FieldID identifies a point field. Obtain it once with FieldIDFromName and
// reuse it; id-based reads avoid a name lookup per call.
type FieldID int32

// GroupCount is the number of security and technological groups currently
// defined by EDS. Group 0 is the admin group.
const GroupCount = 256

// PointGroups is a bit vector of point groups indexed by group number.
type PointGroups []bool

// Has reports whether group i is set. Out-of-range groups are not set.
func (g PointGroups) Has(i int) bool {
	return i >= 0 && i < len(g) && g[i]
}

// Indexes returns the numbers of all set groups in ascending order.
func (g PointGroups) Indexes() []int {
	var out []int
	for i, set := range g {
		if set {
			out = append(out, i)
		}
	}
	return out
}

func groupsFromBitmap(bits []byte) PointGroups {
	g := make(PointGroups, len(bits)*8)
	for i := range g {
		g[i] = bits[i/8]&(1<<(uint(i)%8)) != 0
	}
	return g
}

// TimeUnit selects the resolution of ReadAT.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Microseconds
)

// DefaultMaxPacket is the default maximum UDP packet size.
const DefaultMaxPacket = 32767

// DefaultRemotePort is the port live servers usually listen on.
const DefaultRemotePort = 43000

// ConnectParams are the network parameters shared by every initialization call.
type ConnectParams struct {
	// LocalHost is the address to bind; "0.0.0.0" binds all interfaces.
	LocalHost string

	// LocalPort is the port to bind; 0 binds any free port.
	LocalPort uint16

	// LocalPortRange lets the backend try up to this many ports above
	// LocalPort when it is taken.
	LocalPortRange uint16

	RemoteHost string
	RemotePort uint16

	// MaxPacket limits the UDP packet size; 0 means DefaultMaxPacket.
	MaxPacket uint16
}

func (p ConnectParams) maxPacket() uint16 {
	if p.MaxPacket == 0 {
		return DefaultMaxPacket
	}
	return p.MaxPacket
}

// Default agent credentials used by backends older than 9.2.
const (
	LegacyProgramName  = "api"
	LegacyInstanceName = "default"
)

// State is the connection state of a Client.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateActive
	StateShut
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateShut:
		return "shut"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
