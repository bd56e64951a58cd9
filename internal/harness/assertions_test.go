package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edsapi/internal/stub"
)

func trace(calls ...string) []TraceEvent {
	events := make([]TraceEvent, len(calls))
	for i, c := range calls {
		events[i] = TraceEvent{Seq: int64(i + 1), Call: c}
	}
	return events
}

func TestAssertTraceCount(t *testing.T) {
	tr := trace("setInput", "synchronizeInput", "synchronizeInput")

	assert.NoError(t, assertTraceCount(tr, Assertion{Call: "synchronizeInput", Count: 2}))
	assert.NoError(t, assertTraceCount(tr, Assertion{Call: "shut", Count: 0}))

	err := assertTraceCount(tr, Assertion{Call: "setInput", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 occurrences of setInput")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertTraceOrder(t *testing.T) {
	tr := trace("initializeAsAgent", "setInput", "pointIESS", "synchronizeInput", "readAnalog")

	assert.NoError(t, assertTraceOrder(tr, Assertion{Calls: []string{"initializeAsAgent", "synchronizeInput", "readAnalog"}}))

	err := assertTraceOrder(tr, Assertion{Calls: []string{"readAnalog", "setInput"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setInput not found after [readAnalog]")

	err = assertTraceOrder(tr, Assertion{Calls: []string{"shut"}})
	assert.Error(t, err)
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertState,
		Expected: "active",
		Actual:   "shut",
		Trace:    []TraceEvent{{Seq: 1, Call: "shut", Error: "BadConnectionObject"}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: state")
	assert.Contains(t, msg, "[1] shut map[] -> BadConnectionObject")
}

func TestAssertBackendCalls(t *testing.T) {
	srv := stub.NewServer()
	assert.NoError(t, assertBackendCalls(srv, Assertion{Symbol: "eds_live_shut", Count: 0}))
	assert.Error(t, assertBackendCalls(srv, Assertion{Symbol: "eds_live_shut", Count: 1}))
}

func TestAssertWriteRecorded_NoWrites(t *testing.T) {
	srv := stub.NewServer(stub.Point{IESS: "A1"})
	err := assertWriteRecorded(srv, Assertion{Symbol: "eds_live_write_analog", LID: 0, Value: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eds_live_write_analog lid=0 value=1.5")
	assert.Contains(t, err.Error(), "writes: []")
}

func TestEvaluateAssertions_CollectsFailures(t *testing.T) {
	res := NewResult()
	res.Trace = trace("initializeAsAgent")
	res.State = "active"

	msgs := EvaluateAssertions(res, []Assertion{
		{Type: AssertState, State: "active"},
		{Type: AssertState, State: "shut"},
		{Type: AssertTraceCount, Call: "initializeAsAgent", Count: 2},
	}, &AssertionContext{Server: stub.NewServer()})

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "assertions[1]")
	assert.Contains(t, msgs[1], "assertions[2]")
}

func TestValuesMatch(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"nil expected", 5, nil, true},
		{"int32 vs int", int32(3), 3, true},
		{"float32 vs float64", float32(42.5), 42.5, true},
		{"string", "A", "A", true},
		{"string mismatch", "A", "B", false},
		{"bool", true, true, true},
		{"map subset", map[string]any{"value": float32(1), "quality": "G"}, map[string]any{"quality": "G"}, true},
		{"map missing key", map[string]any{"value": 1}, map[string]any{"quality": "G"}, false},
		{"map vs scalar", 1, map[string]any{"value": 1}, false},
		{"slice", []int{0, 9}, []any{0, 9}, true},
		{"slice length", []int{0}, []any{0, 9}, false},
		{"slice vs scalar", 0, []any{0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesMatch(tt.actual, tt.expected))
		})
	}
}
