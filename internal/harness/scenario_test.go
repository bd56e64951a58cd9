package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: parsed
description: "parse everything"
version: "9.2"
omit: [eds_live_write_st]
init_code: -105
pending_syncs: 2
points:
  - iess: A1
    value: 1.5
flow:
  - call: initializeAsAgent
    expect:
      error: NotLoggedIn
  - call: readAnalog
    args: { lid: 0 }
    fail: { symbol: eds_live_read_analog, code: -100 }
    expect:
      error: BadConnectionObject
assertions:
  - type: write_recorded
    symbol: eds_live_write_st
    lid: 0
    mask: 256
`))
	require.NoError(t, err)

	assert.Equal(t, "parsed", s.Name)
	assert.Equal(t, []string{"eds_live_write_st"}, s.Omit)
	assert.Equal(t, int32(-105), s.InitCode)
	assert.Equal(t, 2, s.PendingSyncs)
	require.Len(t, s.Points, 1)
	assert.Equal(t, 1.5, s.Points[0].Value)

	require.Len(t, s.Flow, 2)
	assert.Equal(t, "NotLoggedIn", s.Flow[0].Expect.Error)
	assert.Equal(t, &Failure{Symbol: "eds_live_read_analog", Code: -100}, s.Flow[1].Fail)
	assert.Equal(t, 0, s.Flow[1].Args["lid"])

	require.Len(t, s.Assertions, 1)
	require.NotNil(t, s.Assertions[0].Mask)
	assert.Equal(t, uint32(256), *s.Assertions[0].Mask)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "description: d\nversion: '9.2'\nflow: [{call: shut}]", "name is required"},
		{"missing description", "name: n\nversion: '9.2'\nflow: [{call: shut}]", "description is required"},
		{"missing version", "name: n\ndescription: d\nflow: [{call: shut}]", "version is required"},
		{"empty flow", "name: n\ndescription: d\nversion: '9.2'\nflow: []", "flow list is required"},
		{"unknown call", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: explode}]", `unknown call "explode"`},
		{"missing call", "name: n\ndescription: d\nversion: '9.2'\nflow: [{args: {}}]", "call is required"},
		{"fail without symbol", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut, fail: {code: -1}}]", "symbol is required"},
		{"inline point without iess", "name: n\ndescription: d\nversion: '9.2'\npoints: [{value: 1.5}]\nflow: [{call: shut}]", "points: point 0: missing iess"},
		{"inline point with bad rt", "name: n\ndescription: d\nversion: '9.2'\npoints: [{iess: X1, rt: Z}]\nflow: [{call: shut}]", `invalid rt "Z"`},
		{"negative pending", "name: n\ndescription: d\nversion: '9.2'\npending_syncs: -1\nflow: [{call: shut}]", "pending_syncs"},
		{"unknown field", "name: n\ndescription: d\nversion: '9.2'\nspeed: 3\nflow: [{call: shut}]", "speed"},
		{"unknown assertion", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut}]\nassertions: [{type: vibes}]", `unknown assertion type "vibes"`},
		{"trace_count without call", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut}]\nassertions: [{type: trace_count}]", "call is required for trace_count"},
		{"trace_order without calls", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut}]\nassertions: [{type: trace_order}]", "calls list is required"},
		{"backend_calls without symbol", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut}]\nassertions: [{type: backend_calls}]", "symbol is required for backend_calls"},
		{"state without state", "name: n\ndescription: d\nversion: '9.2'\nflow: [{call: shut}]\nassertions: [{type: state}]", "state is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesFixture(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.yaml"), []byte("points:\n  - iess: X1\n"), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
version: "9.2"
fixture: points.yaml
points:
  - iess: X2
flow:
  - call: initializeAsAgent
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	points, err := s.points()
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "X1", points[0].IESS)
	assert.Equal(t, "X2", points[1].IESS)
}

func TestLoadScenario_MissingFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
version: "9.2"
fixture: nowhere.yaml
flow:
  - call: initializeAsAgent
`), 0o644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "fixture not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
