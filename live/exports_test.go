package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExports_CoverFunctionTable(t *testing.T) {
	table := Exports()
	entries := (&functionTable{}).entries()

	assert.Len(t, table, len(entries))
	for method := range entries {
		e, ok := table.Lookup(method)
		if assert.True(t, ok, method) {
			assert.Equal(t, method, e.Method)
			assert.Regexp(t, `^eds_live_[a-z0-9_]+$`, e.Symbol)
		}
	}
}

func TestExports_Since(t *testing.T) {
	table := Exports()

	tests := map[string]string{
		"readAnalog":        "7.0",
		"writeXSTn":         "7.3",
		"writeST":           "9.2",
		"writeAT":           "9.2",
		"initializeAsAgent": "9.2",
		"initializeAsUser":  "9.2",
	}
	for method, since := range tests {
		e, ok := table.Lookup(method)
		require.True(t, ok, method)
		assert.Equal(t, since, e.Since, method)
	}
	assert.True(t, table["init"].Deprecated)
}

func TestExports_MethodsSorted(t *testing.T) {
	methods := Exports().Methods()
	require.NotEmpty(t, methods)
	assert.IsNonDecreasing(t, methods)
}

func TestCompileExports_Valid(t *testing.T) {
	src := `
#Export: {
	symbol: =~"^eds_live_[a-z0-9_]+$"
	since:  string | *"7.0"
}
exports: [string]: #Export
exports: {
	shut: symbol: "eds_live_shut"
	writeST: {
		symbol: "eds_live_write_st"
		since:  "9.2"
	}
}
`
	table, err := CompileExports(src)
	require.NoError(t, err)
	assert.Equal(t, Export{Method: "shut", Symbol: "eds_live_shut", Since: "7.0"}, table["shut"])
	assert.Equal(t, "9.2", table["writeST"].Since)
}

func TestCompileExports_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `exports: {`},
		{"no exports", `other: 1`},
		{"bad symbol", `
#Export: symbol: =~"^eds_live_[a-z0-9_]+$"
exports: [string]: #Export
exports: shut: symbol: "Shut"
`},
		{"not concrete", `exports: shut: symbol: string`},
		{"duplicate symbol", `
exports: {
	shut: symbol: "eds_live_shut"
	close: symbol: "eds_live_shut"
}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileExports(tt.src)
			assert.Error(t, err)
		})
	}
}
