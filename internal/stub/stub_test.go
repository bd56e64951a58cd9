package stub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edsapi/backend"
)

const fixtureYAML = `
points:
  - iess: A1.UNIT1@site
    idcs: A1
    zd: UNIT1
    desc: Boiler temperature
    value: 42.5
    st: 0x100
    at: 1700000000
    at_us: 250
    fields:
      HL: "120"
    wdpf:
      KR: "7"
    sec_groups: [0, 9]
  - iess: B1.UNIT1@site
    rt: B
    quality: F
    deleted: true
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	points, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	return NewServer(points...)
}

func connect(t *testing.T, s *Server) (map[string]any, uintptr) {
	t.Helper()
	fns := s.exports()
	var conn uintptr
	initFn := fns[symInitAgent].(func(*uintptr, int32, string, string, string, uint16, string, uint16, uint16, uint16) int32)
	require.Equal(t, codeOK, initFn(&conn, 0x11, "test", "default", "0.0.0.0", 0, "server", 43000, 0, 32767))
	require.NotZero(t, conn)
	return fns, conn
}

func TestParseFixture_Defaults(t *testing.T) {
	points, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "A", points[0].RT)
	assert.Equal(t, "N", points[0].AR)
	assert.Equal(t, "G", points[0].Quality)
	assert.Equal(t, uint32(0x100), points[0].ST)
	assert.Equal(t, "F", points[1].Quality)
	assert.True(t, points[1].Deleted)
}

func TestParseFixture_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseFixture([]byte("points:\n  - iess: A1\n    colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestParseFixture_RejectsInvalidPoints(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing iess", "points:\n  - desc: x\n"},
		{"bad rt", "points:\n  - iess: A1\n    rt: Z\n"},
		{"bad ar", "points:\n  - iess: A1\n    ar: Q\n"},
		{"long quality", "points:\n  - iess: A1\n    quality: GOOD\n"},
		{"group range", "points:\n  - iess: A1\n    tech_groups: [256]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidatePoints(t *testing.T) {
	points := []Point{{IESS: "A1"}, {IESS: "B1", RT: "B", Quality: "P"}}
	require.NoError(t, ValidatePoints(points))
	assert.Equal(t, "A", points[0].RT)
	assert.Equal(t, "G", points[0].Quality)
	assert.Equal(t, "P", points[1].Quality)

	err := ValidatePoints([]Point{{IESS: "A1"}, {Value: 1.5}})
	assert.EqualError(t, err, "point 1: missing iess")
}

func TestNewServer_PanicsOnInvalidPoint(t *testing.T) {
	assert.PanicsWithValue(t, "stub: point 0: missing iess", func() {
		NewServer(Point{Value: 1.5})
	})
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))

	points, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServer_FindNoCaseFolds(t *testing.T) {
	s := newTestServer(t)
	fns, conn := connect(t, s)

	find := fns[symFindByIESS].(func(uintptr, string, *int32) int32)
	findNoCase := fns[symFindByIESSNoCase].(func(uintptr, string, *int32) int32)
	findIDCS := fns[symFindByIDCSNoCase].(func(uintptr, string, string, *int32) int32)

	var status int32
	assert.Equal(t, int32(-1), find(conn, "a1.unit1@SITE", &status))
	assert.Equal(t, codeOK, status)
	assert.Equal(t, int32(0), findNoCase(conn, "a1.unit1@SITE", &status))
	assert.Equal(t, int32(0), findIDCS(conn, "a1", "unit1", &status))
	assert.Equal(t, int32(-1), findNoCase(conn, "NOPE", &status))
}

func TestServer_SyncInputCopiesSubscribedValues(t *testing.T) {
	s := newTestServer(t)
	s.PendingSyncs = 1
	fns, conn := connect(t, s)

	setInput := fns[symSetInput].(func(uintptr, int32) int32)
	sync := fns[symSyncInput].(func(uintptr) int32)
	read := fns[symReadAnalog].(func(uintptr, int32, *byte, *int32) float32)

	require.Equal(t, codeOK, setInput(conn, 0))

	var q byte
	var status int32
	assert.Equal(t, float32(0), read(conn, 0, &q, &status))
	assert.Equal(t, byte('B'), q)

	assert.Equal(t, codeNotSynchronized, sync(conn))
	assert.Equal(t, codeOK, sync(conn))

	assert.Equal(t, float32(42.5), read(conn, 0, &q, &status))
	assert.Equal(t, byte('G'), q)
	assert.Equal(t, 2, s.Calls(symSyncInput))

	in, out := s.Subscriptions(0)
	assert.Equal(t, 1, in)
	assert.Equal(t, 0, out)
}

func TestServer_SyncOutputPublishesOutputs(t *testing.T) {
	s := newTestServer(t)
	fns, conn := connect(t, s)

	setOutput := fns[symSetOutput].(func(uintptr, int32) int32)
	write := fns[symWriteDouble].(func(uintptr, int32, float64, byte) int32)
	writeST := fns[symWriteST].(func(uintptr, int32, uint32, uint32) int32)
	sync := fns[symSyncOutput].(func(uintptr) int32)

	require.Equal(t, codeOK, setOutput(conn, 0))
	require.Equal(t, codeOK, write(conn, 0, 7.25, 'F'))
	require.Equal(t, codeOK, writeST(conn, 0, 0x00130088, 0x007700FF))

	v, _, _ := s.Value(0)
	assert.Equal(t, 42.5, v, "writes stay local until synchronized")

	require.Equal(t, codeOK, sync(conn))
	v, q, ok := s.Value(0)
	require.True(t, ok)
	assert.Equal(t, 7.25, v)
	assert.Equal(t, byte('F'), q)
	assert.Equal(t, uint32(0x00130088), s.ST(0))

	writes := s.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, Write{Symbol: symWriteST, LID: 0, Value: uint32(0x00130088), Mask: 0x007700FF}, writes[1])
}

func TestServer_FailIsOneShot(t *testing.T) {
	s := newTestServer(t)
	fns, conn := connect(t, s)
	sync := fns[symSyncInput].(func(uintptr) int32)

	s.Fail(symSyncInput, -105)
	assert.Equal(t, int32(-105), sync(conn))
	assert.Equal(t, codeOK, sync(conn))
}

func TestServer_UnknownConnection(t *testing.T) {
	s := newTestServer(t)
	fns := s.exports()
	count := fns[symPointCount].(func(uintptr, *int32) int32)

	var status int32
	count(0xdead, &status)
	assert.Equal(t, codeBadConnection, status)
}

func TestServer_Fields(t *testing.T) {
	s := newTestServer(t)
	fns, conn := connect(t, s)

	fieldID := fns[symFieldID].(func(uintptr, string, *int32) int32)
	readString := fns[symReadFieldString].(func(uintptr, int32, int32, *int32) string)
	readInt := fns[symReadFieldInt].(func(uintptr, int32, int32, *int32) int32)
	wdpfInt := fns[symReadWDPFFieldInt].(func(uintptr, int32, string, *int32) int32)

	var status int32
	desc := fieldID(conn, "DESC", &status)
	require.Equal(t, codeOK, status)
	assert.Equal(t, "Boiler temperature", readString(conn, 0, desc, &status))

	hl := fieldID(conn, "HL", &status)
	require.Equal(t, codeOK, status)
	assert.Equal(t, int32(120), readInt(conn, 0, hl, &status))

	fieldID(conn, "NOPE", &status)
	assert.Equal(t, codeInvalidResult, status)

	assert.Equal(t, int32(7), wdpfInt(conn, 0, "KR", &status))
	assert.Equal(t, codeOK, status)
}

func TestServer_Groups(t *testing.T) {
	s := newTestServer(t)
	fns, conn := connect(t, s)
	groups := fns[symPointSecGroups].(func(uintptr, int32, *byte, int32) int32)

	bits := make([]byte, 32)
	require.Equal(t, codeOK, groups(conn, 0, &bits[0], int32(len(bits))))
	assert.Equal(t, byte(0x01), bits[0])
	assert.Equal(t, byte(0x02), bits[1])
}

func TestLoader_OpenRegistered(t *testing.T) {
	l := NewLoader()
	l.Register("9.2", NewServer(), Pre92...)

	name := backend.Descriptor{Type: backend.TypeLive, Version: "9.2"}.FileName()
	lib, err := l.Open(filepath.Join("/opt/eds", name))
	require.NoError(t, err)
	assert.True(t, l.Loaded())

	_, ok := lib.Lookup(symShut)
	assert.True(t, ok)
	_, ok = lib.Lookup(symWriteST)
	assert.False(t, ok, "omitted export")

	require.NoError(t, lib.Close())
	assert.Error(t, lib.Close())
	assert.Equal(t, 1, l.Opens())
	assert.Equal(t, 1, l.Closes())
	assert.False(t, l.Loaded())
}

func TestLoader_OpenUnregistered(t *testing.T) {
	l := NewLoader()
	_, err := l.Open("libedsapi_live_1_0.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open shared object file")
	assert.Equal(t, 0, l.Opens())
}
