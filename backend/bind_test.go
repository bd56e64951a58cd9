package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shutFunc func(conn uintptr) int32

func loadFake(t *testing.T, symbols map[string]Symbol) *Backend {
	t.Helper()
	loader, _ := newFake(symbols)
	b, err := Load(Descriptor{Type: TypeLive, Version: "9.2"}, WithLoader(loader), WithLogger(quietLogger()))
	require.NoError(t, err)
	return b
}

func TestBind_InProcessFunction(t *testing.T) {
	var got uintptr
	b := loadFake(t, map[string]Symbol{
		"eds_live_shut": {Func: func(conn uintptr) int32 { got = conn; return -100 }},
	})
	defer b.Close()

	f, err := Bind[func(uintptr) int32](b, "eds_live_shut")
	require.NoError(t, err)
	assert.True(t, f.Resolved())
	assert.Equal(t, "eds_live_shut", f.Export())

	fn, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(-100), fn(7))
	assert.Equal(t, uintptr(7), got)
}

func TestBind_ConvertsToNamedFuncType(t *testing.T) {
	b := loadFake(t, map[string]Symbol{
		"eds_live_shut": {Func: func(conn uintptr) int32 { return 0 }},
	})
	defer b.Close()

	f, err := Bind[shutFunc](b, "eds_live_shut")
	require.NoError(t, err)
	fn, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(0), fn(1))
	assert.Equal(t, "backend.shutFunc", f.Signature())
}

func TestBind_SignatureMismatch(t *testing.T) {
	b := loadFake(t, map[string]Symbol{
		"eds_live_shut": {Func: func(conn uintptr) bool { return true }},
	})
	defer b.Close()

	f, err := Bind[shutFunc](b, "eds_live_shut")
	require.Error(t, err)
	var se *SignatureError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "eds_live_shut", se.Export)
	assert.False(t, f.Resolved())
}

func TestBind_NonFuncSymbol(t *testing.T) {
	b := loadFake(t, map[string]Symbol{
		"eds_live_version": {Func: "9.2"},
	})
	defer b.Close()

	_, err := Bind[func() string](b, "eds_live_version")
	var se *SignatureError
	assert.ErrorAs(t, err, &se)
}

func TestBind_AbsentExportIsUnresolved(t *testing.T) {
	b := loadFake(t, nil)
	defer b.Close()

	f, err := Bind[shutFunc](b, "eds_live_shut")
	require.NoError(t, err, "absence is not a bind error")
	assert.False(t, f.Resolved())

	fn, err := f.Get()
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Nil(t, fn, "no callable value is ever produced for an absent export")
}

func TestFunction_GetAfterRelease(t *testing.T) {
	calls := 0
	b := loadFake(t, map[string]Symbol{
		"eds_live_shut": {Func: func(conn uintptr) int32 { calls++; return 0 }},
	})

	f, err := Bind[shutFunc](b, "eds_live_shut")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	fn, err := f.Get()
	assert.ErrorIs(t, err, ErrReleased)
	assert.Nil(t, fn)
	assert.Zero(t, calls)
}

func TestFunction_ZeroValue(t *testing.T) {
	var f Function[shutFunc]
	_, err := f.Get()
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.False(t, f.Resolved())
}
