package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo", "-c", "testdata/plant.yaml", "--stub", "testdata/points.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12, strings.Count(out, "------------------------------------------------"))
	assert.Equal(t, 12, strings.Count(out, "IESS=A1"))
	assert.Equal(t, 12, strings.Count(out, "IESS=OUT1"))

	// the alarm is cleared on the first iteration and raised on the eleventh
	assert.Equal(t, 2, strings.Count(out, "ST=0x00000088"))
}

func TestDemoCommand_JSON(t *testing.T) {
	out, err := execute(t, "demo", "-c", "testdata/plant.yaml", "--stub", "testdata/points.yaml", "--format", "json")
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewReader([]byte(out)))
	var iterations []DemoIteration
	for {
		var resp struct {
			Status string        `json:"status"`
			Data   DemoIteration `json:"data"`
		}
		if err := dec.Decode(&resp); err == io.EOF {
			break
		} else {
			require.NoError(t, err)
		}
		iterations = append(iterations, resp.Data)
	}

	require.Len(t, iterations, 12)
	assert.Equal(t, uint32(0), iterations[0].Status)
	assert.Equal(t, uint32(0x88), iterations[10].Status)
	require.Len(t, iterations[11].Outputs, 1)
	assert.Equal(t, uint32(0x88), iterations[11].Outputs[0].ST)
	assert.Equal(t, "G", iterations[11].Outputs[0].Quality)
	assert.GreaterOrEqual(t, iterations[11].Outputs[0].Value, 0.0)
	assert.Less(t, iterations[11].Outputs[0].Value, 1.0)
	require.Len(t, iterations[0].Inputs, 2)
	assert.Equal(t, 42.5, iterations[0].Inputs[0].Value)
}

func TestDemoCommand_MissingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "9.2"
remote_host: localhost
inputs: [A1]
outputs: [GHOST]
interval: 1ms
iterations: 1
`), 0o644))

	out, err := execute(t, "demo", "-c", path, "--stub", "testdata/points.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_POINT_NOT_FOUND]")
	assert.Contains(t, out, "GHOST")
}
