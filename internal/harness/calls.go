package harness

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/edsapi/live"
)

// callFunc performs one scenario call. The returned value is recorded in
// the trace.
type callFunc func(c *live.Client, a *args) (any, error)

// calls maps scenario call names to client operations. Names follow the
// operation names of the export table; "close" and "state" are extras.
var calls = map[string]callFunc{
	"setupLogger": func(c *live.Client, a *args) (any, error) {
		cfg := a.str("config")
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.SetupLogger(cfg)
	},
	"init": func(c *live.Client, a *args) (any, error) {
		mode, p := a.mode(), a.params()
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.Init(mode, p)
	},
	"initializeAsAgent": func(c *live.Client, a *args) (any, error) {
		mode, program, instance, p := a.mode(), a.optStr("program", "harness"), a.optStr("instance", "default"), a.params()
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.InitializeAsAgent(mode, program, instance, p)
	},
	"initializeAsUser": func(c *live.Client, a *args) (any, error) {
		user, password, p := a.str("user"), a.optStr("password", ""), a.params()
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.InitializeAsUser(user, password, p)
	},
	"shut":  func(c *live.Client, _ *args) (any, error) { return nil, c.Shut() },
	"close": func(c *live.Client, _ *args) (any, error) { return nil, c.Close() },
	"state": func(c *live.Client, _ *args) (any, error) { return c.State().String(), nil },

	"findByIESS":       withName("iess", (*live.Client).FindByIESS),
	"findByIESSNoCase": withName("iess", (*live.Client).FindByIESSNoCase),
	"findByIDCS":       withIDCS((*live.Client).FindByIDCS),
	"findByIDCSNoCase": withIDCS((*live.Client).FindByIDCSNoCase),
	"highestLID":       withConn((*live.Client).HighestLID),
	"pointCount":       withConn((*live.Client).PointCount),
	"isPointAlive":     withLID((*live.Client).IsPointAlive),

	"setInput":    withLIDAction((*live.Client).SetInput),
	"setOutput":   withLIDAction((*live.Client).SetOutput),
	"unsetInput":  withLIDAction((*live.Client).UnsetInput),
	"unsetOutput": withLIDAction((*live.Client).UnsetOutput),

	"synchronizeInput":   func(c *live.Client, _ *args) (any, error) { return nil, c.SynchronizeInput() },
	"synchronizeOutput":  func(c *live.Client, _ *args) (any, error) { return nil, c.SynchronizeOutput() },
	"isUpdateRequired":   withConn((*live.Client).IsUpdateRequired),
	"staticInfoChanged":  withConn((*live.Client).StaticInfoChanged),
	"dynamicInfoChanged": withConn((*live.Client).DynamicInfoChanged),

	"pointQuality":    withLID((*live.Client).PointQuality),
	"pointSID":        withLID((*live.Client).PointSID),
	"pointIESS":       withLID((*live.Client).PointIESS),
	"pointZD":         withLID((*live.Client).PointZD),
	"pointIDCS":       withLID((*live.Client).PointIDCS),
	"pointDESC":       withLID((*live.Client).PointDESC),
	"pointAUX":        withLID((*live.Client).PointAUX),
	"pointRTString":   withLID((*live.Client).PointRTString),
	"pointAR":         withLID((*live.Client).PointAR),
	"pointRT":         withLID((*live.Client).PointRT),
	"pointValue":      withLID((*live.Client).PointValue),
	"pointSecGroups":  withLID((*live.Client).PointSecGroups),
	"pointTechGroups": withLID((*live.Client).PointTechGroups),

	"readAnalog": withRead((*live.Client).ReadAnalog),
	"readDouble": withRead((*live.Client).ReadDouble),
	"readPacked": withRead((*live.Client).ReadPacked),
	"readInt64":  withRead((*live.Client).ReadInt64),
	"readBinary": withRead((*live.Client).ReadBinary),

	"writeAnalog": withWrite((*live.Client).WriteAnalog, func(a *args) float32 { return float32(a.float("value")) }),
	"writeDouble": withWrite((*live.Client).WriteDouble, func(a *args) float64 { return a.float("value") }),
	"writePacked": withWrite((*live.Client).WritePacked, func(a *args) uint32 { return uint32(a.integer("value")) }),
	"writeInt64":  withWrite((*live.Client).WriteInt64, func(a *args) int64 { return a.integer("value") }),
	"writeBinary": withWrite((*live.Client).WriteBinary, func(a *args) bool { return a.boolean("value") }),

	"fieldIdFromName":     withName("name", (*live.Client).FieldIDFromName),
	"fieldIdFromWDPFName": withName("name", (*live.Client).FieldIDFromWDPFName),
	"readFieldInt":        withField((*live.Client).ReadFieldInt, (*live.Client).ReadFieldIntByName),
	"readFieldFloat":      withField((*live.Client).ReadFieldFloat, (*live.Client).ReadFieldFloatByName),
	"readFieldDouble":     withField((*live.Client).ReadFieldDouble, (*live.Client).ReadFieldDoubleByName),
	"readFieldString":     withField((*live.Client).ReadFieldString, (*live.Client).ReadFieldStringByName),
	"readWDPFFieldInt":    withWDPF((*live.Client).ReadWDPFFieldInt),
	"readWDPFFieldFloat":  withWDPF((*live.Client).ReadWDPFFieldFloat),
	"readWDPFFieldDouble": withWDPF((*live.Client).ReadWDPFFieldDouble),
	"readWDPFFieldString": withWDPF((*live.Client).ReadWDPFFieldString),

	"readAT": func(c *live.Client, a *args) (any, error) {
		lid, unit := a.lid(), live.Seconds
		if a.optStr("unit", "s") == "us" {
			unit = live.Microseconds
		}
		if a.err != nil {
			return nil, a.err
		}
		v, err := c.ReadAT(lid, unit)
		return result(v, err)
	},
	"readATTime": func(c *live.Client, a *args) (any, error) {
		lid := a.lid()
		if a.err != nil {
			return nil, a.err
		}
		t, err := c.ReadATTime(lid)
		if err != nil {
			return nil, err
		}
		return t.Format(time.RFC3339Nano), nil
	},
	"writeAT": func(c *live.Client, a *args) (any, error) {
		lid, sec, usec := a.lid(), uint32(a.integer("seconds")), uint32(a.optInt("useconds", 0))
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.WriteAT(lid, sec, usec)
	},
	"writeST": func(c *live.Client, a *args) (any, error) {
		lid, value, mask := a.lid(), uint32(a.integer("value")), uint32(a.integer("mask"))
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.WriteST(lid, value, mask)
	},
	"writeXSTn": func(c *live.Client, a *args) (any, error) {
		lid, n, value, mask := a.lid(), int32(a.integer("n")), uint32(a.integer("value")), uint32(a.integer("mask"))
		if a.err != nil {
			return nil, a.err
		}
		return nil, c.WriteXSTn(lid, n, value, mask)
	},
}

// Calls returns the names of all scenario calls, sorted.
func Calls() []string {
	names := make([]string, 0, len(calls))
	for name := range calls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func result[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return traceValue(v), nil
}

// traceValue converts client results to plain JSON-friendly values.
func traceValue(v any) any {
	switch v := v.(type) {
	case live.Quality:
		return v.String()
	case live.PointType:
		return string(rune(v))
	case live.ArchiveType:
		return string(rune(v))
	case live.FieldID:
		return int32(v)
	case live.PointGroups:
		idx := v.Indexes()
		if idx == nil {
			idx = []int{}
		}
		return idx
	default:
		return v
	}
}

func withConn[T any](f func(*live.Client) (T, error)) callFunc {
	return func(c *live.Client, _ *args) (any, error) {
		v, err := f(c)
		return result(v, err)
	}
}

func withLID[T any](f func(*live.Client, int32) (T, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid := a.lid()
		if a.err != nil {
			return nil, a.err
		}
		v, err := f(c, lid)
		return result(v, err)
	}
}

func withLIDAction(f func(*live.Client, int32) error) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid := a.lid()
		if a.err != nil {
			return nil, a.err
		}
		return nil, f(c, lid)
	}
}

func withName[T any](key string, f func(*live.Client, string) (T, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		name := a.str(key)
		if a.err != nil {
			return nil, a.err
		}
		v, err := f(c, name)
		return result(v, err)
	}
}

func withIDCS(f func(*live.Client, string, string) (int32, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		idcs, zd := a.str("idcs"), a.str("zd")
		if a.err != nil {
			return nil, a.err
		}
		v, err := f(c, idcs, zd)
		return result(v, err)
	}
}

func withRead[T any](f func(*live.Client, int32) (T, live.Quality, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid := a.lid()
		if a.err != nil {
			return nil, a.err
		}
		v, q, err := f(c, lid)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v, "quality": q.String()}, nil
	}
}

func withWrite[T any](f func(*live.Client, int32, T, live.Quality) error, value func(*args) T) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid, v, q := a.lid(), value(a), a.quality()
		if a.err != nil {
			return nil, a.err
		}
		return nil, f(c, lid, v, q)
	}
}

func withField[T any](byID func(*live.Client, int32, live.FieldID) (T, error), byName func(*live.Client, int32, string) (T, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid := a.lid()
		if a.has("name") {
			name := a.str("name")
			if a.err != nil {
				return nil, a.err
			}
			v, err := byName(c, lid, name)
			return result(v, err)
		}
		field := live.FieldID(a.integer("field"))
		if a.err != nil {
			return nil, a.err
		}
		v, err := byID(c, lid, field)
		return result(v, err)
	}
}

func withWDPF[T any](f func(*live.Client, int32, string) (T, error)) callFunc {
	return func(c *live.Client, a *args) (any, error) {
		lid, name := a.lid(), a.str("name")
		if a.err != nil {
			return nil, a.err
		}
		v, err := f(c, lid, name)
		return result(v, err)
	}
}

// args reads typed call arguments. The first problem is kept in err and
// later reads return zero values.
type args struct {
	m    map[string]any
	vars map[string]any
	err  error
}

func (a *args) fail(format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf(format, v...)
	}
}

func (a *args) has(key string) bool {
	_, ok := a.m[key]
	return ok
}

func (a *args) value(key string) (any, bool) {
	v, ok := a.m[key]
	if !ok {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.HasPrefix(s, "$") {
		saved, found := a.vars[s[1:]]
		if !found {
			a.fail("argument %s: no saved result %s", key, s)
			return nil, false
		}
		return saved, true
	}
	return v, true
}

func (a *args) str(key string) string {
	v, ok := a.value(key)
	if !ok {
		a.fail("missing argument %s", key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	return s
}

func (a *args) optStr(key, def string) string {
	if !a.has(key) {
		return def
	}
	return a.str(key)
}

func (a *args) integer(key string) int64 {
	v, ok := a.value(key)
	if !ok {
		a.fail("missing argument %s", key)
		return 0
	}
	i, ok := toInt(v)
	if !ok {
		a.fail("argument %s: want integer, got %T", key, v)
	}
	return i
}

func (a *args) optInt(key string, def int64) int64 {
	if !a.has(key) {
		return def
	}
	return a.integer(key)
}

func (a *args) float(key string) float64 {
	v, ok := a.value(key)
	if !ok {
		a.fail("missing argument %s", key)
		return 0
	}
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	}
	i, ok := toInt(v)
	if !ok {
		a.fail("argument %s: want number, got %T", key, v)
	}
	return float64(i)
}

func (a *args) boolean(key string) bool {
	v, ok := a.value(key)
	if !ok {
		a.fail("missing argument %s", key)
		return false
	}
	b, ok := v.(bool)
	if !ok {
		a.fail("argument %s: want bool, got %T", key, v)
	}
	return b
}

func (a *args) lid() int32 {
	return int32(a.integer("lid"))
}

func (a *args) quality() live.Quality {
	q := a.optStr("quality", "G")
	if len(q) != 1 {
		a.fail("argument quality: want a single letter, got %q", q)
		return 0
	}
	return live.Quality(q[0])
}

func (a *args) mode() live.AccessMode {
	switch m := a.optStr("mode", "readwrite"); m {
	case "read":
		return live.AccessRead
	case "write":
		return live.AccessWrite
	case "readwrite":
		return live.AccessReadWrite
	default:
		a.fail("argument mode: want read, write or readwrite, got %q", m)
		return 0
	}
}

func (a *args) params() live.ConnectParams {
	return live.ConnectParams{
		LocalHost:      a.optStr("local_host", "0.0.0.0"),
		LocalPort:      uint16(a.optInt("local_port", 0)),
		LocalPortRange: uint16(a.optInt("local_port_range", 0)),
		RemoteHost:     a.optStr("remote_host", "localhost"),
		RemotePort:     uint16(a.optInt("remote_port", live.DefaultRemotePort)),
		MaxPacket:      uint16(a.optInt("max_packet", 0)),
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
