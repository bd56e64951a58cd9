package stub

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Raw status codes. They mirror the codes of real backends; the stub keeps
// its own copy so it never depends on the client it serves.
const (
	codeOK              int32 = 0
	codeInvalidResult   int32 = -10
	codeBadConnection   int32 = -100
	codeNotSynchronized int32 = -106
)

const groupBits = 256

// builtinFields are the field names every point has, in id order starting
// at 1. Extra fields named by fixtures get the following ids.
var builtinFields = []string{
	"ST", "XST1", "XST2", "XST3", "AV", "AT", "IESS", "ZD", "IDCS", "DESC", "AUX", "SID", "RT", "AR",
}

// sample is the dynamic part of a point.
type sample struct {
	value   float64
	quality byte
	st      uint32
	xst     [3]uint32
	atMicro int64
}

// Write is a value stored through one of the write functions.
type Write struct {
	Symbol  string
	LID     int32
	Value   any
	Mask    uint32
	N       int32
	Quality byte
}

// Login records one initialization request.
type Login struct {
	Symbol     string
	Mode       int32
	Program    string
	Instance   string
	User       string
	RemoteHost string
	RemotePort uint16
	MaxPacket  uint16
}

type session struct {
	inputs         map[int32]int
	outputs        map[int32]int
	local          map[int32]sample
	dirty          map[int32]bool
	pendingSyncs   int
	synced         bool
	dynamicChanged bool
	staticChanged  bool
	updateRequired bool
}

// Server simulates an EDS live server together with the client-side state
// a backend keeps per connection.
//
// A Server is not safe for concurrent use.
type Server struct {
	// InitCode is returned by the initialization functions. Retryable codes
	// still create a connection.
	InitCode int32

	// PendingSyncs is the number of NotSynchronized results a new
	// connection's SynchronizeInput reports before succeeding.
	PendingSyncs int

	points     []Point
	server     []sample
	fieldIDs   map[string]int32
	fieldNames []string
	wdpfIDs    map[string]int32

	conns    map[uintptr]*session
	nextConn uintptr

	failures map[string][]int32
	calls    map[string]int
	writes   []Write
	logins   []Login
	logger   []string
	fold     cases.Caser
}

// NewServer returns a server holding points. Local ids are assigned in
// order starting at 0. It panics on a point ValidatePoints rejects.
func NewServer(points ...Point) *Server {
	s := &Server{
		points:   make([]Point, len(points)),
		server:   make([]sample, len(points)),
		fieldIDs: make(map[string]int32),
		wdpfIDs:  make(map[string]int32),
		conns:    make(map[uintptr]*session),
		nextConn: 0x1000,
		failures: make(map[string][]int32),
		calls:    make(map[string]int),
		fold:     cases.Fold(),
	}

	extra := map[string]bool{}
	wdpf := map[string]bool{}
	for i, p := range points {
		if err := p.normalize(); err != nil {
			panic(fmt.Sprintf("stub: point %d: %v", i, err))
		}
		s.points[i] = p
		s.server[i] = sample{
			value:   p.Value,
			quality: p.Quality[0],
			st:      p.ST,
			atMicro: p.AT*1_000_000 + p.ATMicros,
		}
		for name := range p.Fields {
			extra[name] = true
		}
		for name := range p.WDPF {
			wdpf[name] = true
		}
	}

	s.fieldNames = append([]string{""}, builtinFields...)
	extraNames := make([]string, 0, len(extra))
	for name := range extra {
		if !slices.Contains(builtinFields, name) {
			extraNames = append(extraNames, name)
		}
	}
	sort.Strings(extraNames)
	s.fieldNames = append(s.fieldNames, extraNames...)
	for id, name := range s.fieldNames {
		if name != "" {
			s.fieldIDs[name] = int32(id)
		}
	}

	wdpfNames := make([]string, 0, len(wdpf))
	for name := range wdpf {
		wdpfNames = append(wdpfNames, name)
	}
	sort.Strings(wdpfNames)
	for i, name := range wdpfNames {
		s.wdpfIDs[name] = int32(i + 1)
	}
	return s
}

// Fail makes the next call of symbol return code. Failures queue up per
// symbol.
func (s *Server) Fail(symbol string, code int32) {
	s.failures[symbol] = append(s.failures[symbol], code)
}

// Calls returns how often symbol was called, including failed calls.
func (s *Server) Calls(symbol string) int {
	return s.calls[symbol]
}

// Writes returns every write in call order.
func (s *Server) Writes() []Write {
	return slices.Clone(s.writes)
}

// Logins returns every initialization request in call order.
func (s *Server) Logins() []Login {
	return slices.Clone(s.logins)
}

// LoggerConfigs returns the strings passed to setup_logger.
func (s *Server) LoggerConfigs() []string {
	return slices.Clone(s.logger)
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	return len(s.conns)
}

// Subscriptions returns the backend-side input and output counts of lid
// summed over all connections.
func (s *Server) Subscriptions(lid int32) (input, output int) {
	for _, c := range s.conns {
		input += c.inputs[lid]
		output += c.outputs[lid]
	}
	return input, output
}

// Value returns the server-side value and quality of lid.
func (s *Server) Value(lid int32) (float64, byte, bool) {
	if !s.valid(lid) {
		return 0, 0, false
	}
	smp := s.server[lid]
	return smp.value, smp.quality, true
}

// SetValue changes the server-side value of lid, as if another client had
// published it.
func (s *Server) SetValue(lid int32, value float64, quality byte) {
	if !s.valid(lid) {
		return
	}
	s.server[lid].value = value
	s.server[lid].quality = quality
}

// ST returns the server-side status word of lid.
func (s *Server) ST(lid int32) uint32 {
	if !s.valid(lid) {
		return 0
	}
	return s.server[lid].st
}

// enter counts a call and reports a queued failure.
func (s *Server) enter(symbol string) (int32, bool) {
	s.calls[symbol]++
	q := s.failures[symbol]
	if len(q) == 0 {
		return 0, false
	}
	s.failures[symbol] = q[1:]
	return q[0], true
}

func (s *Server) valid(lid int32) bool {
	return lid >= 0 && int(lid) < len(s.points)
}

func (s *Server) session(conn uintptr) (*session, int32) {
	c, ok := s.conns[conn]
	if !ok {
		return nil, codeBadConnection
	}
	return c, codeOK
}

// point resolves conn and lid for a per-point call.
func (s *Server) point(symbol string, conn uintptr, lid int32) (*session, int32) {
	if code, failed := s.enter(symbol); failed {
		return nil, code
	}
	c, code := s.session(conn)
	if code != codeOK {
		return nil, code
	}
	if !s.valid(lid) {
		return nil, codeInvalidResult
	}
	return c, codeOK
}

func (s *Server) login(l Login) (uintptr, int32) {
	if code, failed := s.enter(l.Symbol); failed {
		return 0, code
	}
	s.logins = append(s.logins, l)

	s.nextConn += 0x10
	conn := s.nextConn
	s.conns[conn] = &session{
		inputs:         make(map[int32]int),
		outputs:        make(map[int32]int),
		local:          make(map[int32]sample),
		dirty:          make(map[int32]bool),
		pendingSyncs:   s.PendingSyncs,
		updateRequired: true,
	}
	return conn, s.InitCode
}

func (s *Server) shut(conn uintptr) int32 {
	if code, failed := s.enter(symShut); failed {
		delete(s.conns, conn)
		return code
	}
	if _, code := s.session(conn); code != codeOK {
		return code
	}
	delete(s.conns, conn)
	return codeOK
}

func (s *Server) find(symbol string, conn uintptr, name string, noCase bool) (int32, int32) {
	if code, failed := s.enter(symbol); failed {
		return -1, code
	}
	if _, code := s.session(conn); code != codeOK {
		return -1, code
	}
	for i, p := range s.points {
		if s.match(p.IESS, name, noCase) {
			return int32(i), codeOK
		}
	}
	return -1, codeOK
}

func (s *Server) findIDCS(symbol string, conn uintptr, idcs, zd string, noCase bool) (int32, int32) {
	if code, failed := s.enter(symbol); failed {
		return -1, code
	}
	if _, code := s.session(conn); code != codeOK {
		return -1, code
	}
	for i, p := range s.points {
		if s.match(p.IDCS, idcs, noCase) && s.match(p.ZD, zd, noCase) {
			return int32(i), codeOK
		}
	}
	return -1, codeOK
}

func (s *Server) match(have, want string, noCase bool) bool {
	if !noCase {
		return have == want
	}
	return s.fold.String(norm.NFC.String(have)) == s.fold.String(norm.NFC.String(want))
}

func (s *Server) subscribe(symbol string, conn uintptr, lid int32, input bool, delta int) int32 {
	c, code := s.point(symbol, conn, lid)
	if code != codeOK {
		return code
	}
	counts := c.outputs
	if input {
		counts = c.inputs
	}
	counts[lid] += delta
	if counts[lid] <= 0 {
		delete(counts, lid)
	}
	return codeOK
}

func (s *Server) syncInput(conn uintptr) int32 {
	if code, failed := s.enter(symSyncInput); failed {
		return code
	}
	c, code := s.session(conn)
	if code != codeOK {
		return code
	}
	if c.pendingSyncs > 0 {
		c.pendingSyncs--
		return codeNotSynchronized
	}

	c.dynamicChanged = false
	for lid := range c.inputs {
		if c.local[lid] != s.server[lid] {
			c.dynamicChanged = true
		}
		c.local[lid] = s.server[lid]
	}
	c.staticChanged = !c.synced
	c.synced = true
	return codeOK
}

func (s *Server) syncOutput(conn uintptr) int32 {
	if code, failed := s.enter(symSyncOutput); failed {
		return code
	}
	c, code := s.session(conn)
	if code != codeOK {
		return code
	}
	for lid := range c.dirty {
		if c.outputs[lid] > 0 {
			s.server[lid] = c.local[lid]
		}
	}
	clear(c.dirty)
	c.updateRequired = false
	return codeOK
}

func (s *Server) flag(symbol string, conn uintptr, get func(*session) bool) (bool, int32) {
	if code, failed := s.enter(symbol); failed {
		return false, code
	}
	c, code := s.session(conn)
	if code != codeOK {
		return false, code
	}
	return get(c), codeOK
}

// current returns the client-side sample of lid. Points never synchronized
// or written read as zero with bad quality.
func (c *session) current(lid int32) sample {
	if smp, ok := c.local[lid]; ok {
		return smp
	}
	return sample{quality: 'B'}
}

func (s *Server) read(symbol string, conn uintptr, lid int32) (sample, int32) {
	c, code := s.point(symbol, conn, lid)
	if code != codeOK {
		return sample{}, code
	}
	return c.current(lid), codeOK
}

// write applies update to the local sample of lid and records w.
func (s *Server) write(w Write, conn uintptr, update func(*sample)) int32 {
	c, code := s.point(w.Symbol, conn, w.LID)
	if code != codeOK {
		return code
	}
	smp := c.current(w.LID)
	update(&smp)
	c.local[w.LID] = smp
	c.dirty[w.LID] = true
	s.writes = append(s.writes, w)
	return codeOK
}

func (s *Server) writeValue(symbol string, conn uintptr, lid int32, value any, v float64, quality byte) int32 {
	w := Write{Symbol: symbol, LID: lid, Value: value, Quality: quality}
	return s.write(w, conn, func(smp *sample) {
		smp.value = v
		smp.quality = quality
	})
}

func (s *Server) pointString(symbol string, conn uintptr, lid int32, get func(Point) string) (string, int32) {
	if _, code := s.point(symbol, conn, lid); code != codeOK {
		return "", code
	}
	return get(s.points[lid]), codeOK
}

func (s *Server) groups(symbol string, conn uintptr, lid int32, bits []byte, set []int) int32 {
	if _, code := s.point(symbol, conn, lid); code != codeOK {
		return code
	}
	clear(bits)
	for _, g := range set {
		if g/8 < len(bits) {
			bits[g/8] |= 1 << (uint(g) % 8)
		}
	}
	return codeOK
}

// field returns the textual value of the field with the given id.
func (s *Server) field(symbol string, conn uintptr, lid, id int32) (string, int32) {
	c, code := s.point(symbol, conn, lid)
	if code != codeOK {
		return "", code
	}
	if id <= 0 || int(id) >= len(s.fieldNames) {
		return "", codeInvalidResult
	}
	p := s.points[lid]
	smp := c.current(lid)

	switch name := s.fieldNames[id]; name {
	case "ST":
		return strconv.FormatUint(uint64(smp.st), 10), codeOK
	case "XST1", "XST2", "XST3":
		return strconv.FormatUint(uint64(smp.xst[name[3]-'1']), 10), codeOK
	case "AV":
		return strconv.FormatFloat(smp.value, 'g', -1, 64), codeOK
	case "AT":
		return strconv.FormatInt(smp.atMicro/1_000_000, 10), codeOK
	case "IESS":
		return p.IESS, codeOK
	case "ZD":
		return p.ZD, codeOK
	case "IDCS":
		return p.IDCS, codeOK
	case "DESC":
		return p.Desc, codeOK
	case "AUX":
		return p.Aux, codeOK
	case "SID":
		return strconv.FormatInt(int64(p.SID), 10), codeOK
	case "RT":
		return p.RT, codeOK
	case "AR":
		return p.AR, codeOK
	default:
		v, ok := p.Fields[name]
		if !ok {
			return "", codeInvalidResult
		}
		return v, codeOK
	}
}

func (s *Server) wdpfField(symbol string, conn uintptr, lid int32, name string) (string, int32) {
	if _, code := s.point(symbol, conn, lid); code != codeOK {
		return "", code
	}
	v, ok := s.points[lid].WDPF[name]
	if !ok {
		return "", codeInvalidResult
	}
	return v, codeOK
}

func (s *Server) fieldID(symbol string, conn uintptr, name string, ids map[string]int32) (int32, int32) {
	if code, failed := s.enter(symbol); failed {
		return -1, code
	}
	if _, code := s.session(conn); code != codeOK {
		return -1, code
	}
	id, ok := ids[name]
	if !ok {
		return -1, codeInvalidResult
	}
	return id, codeOK
}

func parseInt(v string) (int64, bool) {
	if i, err := strconv.ParseInt(v, 0, 64); err == nil {
		return i, true
	}
	if u, err := strconv.ParseUint(v, 0, 64); err == nil {
		return int64(u), true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

func parseFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}
