// Package harness runs scripted client sessions against the stub backend.
//
// A scenario names a backend version, the points the simulated server
// holds, and a flow of client calls with their expected outcomes. The
// harness records every call in a trace that can be compared against a
// golden file, then checks the scenario's assertions.
//
// # Scenario Format
//
//	name: read_input
//	description: "Subscribe to a point and read its value"
//	version: "9.2"
//	fixture: ../fixtures/points.yaml
//	flow:
//	  - call: initializeAsAgent
//	    args: { program: demo }
//	  - call: findByIESS
//	    args: { iess: A1 }
//	    save: a1
//	  - call: setInput
//	    args: { lid: $a1 }
//	  - call: synchronizeInput
//	  - call: readAnalog
//	    args: { lid: $a1 }
//	    expect:
//	      result: { value: 42.5, quality: G }
//	assertions:
//	  - type: subscriptions
//	    lid: 0
//	    input: 1
//
// Without an expect clause a call must succeed. An expect clause names the
// error (a backend code name such as NotSynchronized, or Unsupported,
// Uninitialized and Closed) and optionally the result. A fail clause
// injects a raw backend code into the next call of an export.
//
// # Assertion Types
//
//   - trace_count: a call appears exactly N times
//   - trace_order: calls appear in order, others may come in between
//   - subscriptions: client and backend counts for a point
//   - write_recorded: the backend received a write
//   - backend_calls: an export was entered N times
//   - state: the client state after the flow
//
// # Deterministic Testing
//
// Every run builds its own stub server, loader and client. Trace sequence
// numbers start at 1 and session ids never appear in the trace, so the same
// scenario always yields the same golden snapshot.
package harness
