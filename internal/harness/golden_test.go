package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot(t *testing.T) {
	res := NewResult()
	res.State = "active"
	res.AddTrace(TraceEvent{Seq: 1, Call: "findByIESS", Args: map[string]any{"iess": "A1"}, Result: int32(0)})
	res.AddTrace(TraceEvent{Seq: 2, Call: "shut", Error: "BadConnectionObject"})

	data, err := MarshalSnapshot("snap", res)
	require.NoError(t, err)

	assert.Equal(t, `{
  "scenario_name": "snap",
  "trace": [
    {
      "seq": 1,
      "call": "findByIESS",
      "args": {
        "iess": "A1"
      },
      "result": 0
    },
    {
      "seq": 2,
      "call": "shut",
      "error": "BadConnectionObject"
    }
  ],
  "state": "active"
}
`, string(data))
}

func TestMarshalSnapshot_EmptyTrace(t *testing.T) {
	data, err := MarshalSnapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trace": []`)
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/shut_failure.yaml")
	require.NoError(t, err)

	res, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, scenario.Name, res))
}
