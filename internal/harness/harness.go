package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/edsapi/internal/stub"
	"github.com/roach88/edsapi/internal/testutil"
	"github.com/roach88/edsapi/live"
)

// Harness runs one scenario against a fresh stub backend.
type Harness struct {
	client *live.Client
	server *stub.Server
	seq    *testutil.Sequence
	vars   map[string]any
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger for step records. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each run gets its own stub server and loader, so scenarios are isolated
// and their traces deterministic. An error is returned only when the
// scenario cannot run at all; failed expectations land in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	points, err := scenario.points()
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}

	srv := stub.NewServer(points...)
	srv.InitCode = scenario.InitCode
	srv.PendingSyncs = scenario.PendingSyncs

	loader := stub.NewLoader()
	loader.Register(scenario.Version, srv, scenario.Omit...)

	h := &Harness{
		server: srv,
		seq:    testutil.NewSequence(),
		vars:   make(map[string]any),
		logger: testutil.QuietLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}

	client, err := live.New(scenario.Version, live.WithLoader(loader), live.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()
	h.client = client

	res := NewResult()
	h.executeFlow(scenario.Flow, res)
	res.State = client.State().String()

	for _, msg := range EvaluateAssertions(res, scenario.Assertions, &AssertionContext{Client: client, Server: srv}) {
		res.AddError(msg)
	}
	return res, nil
}

func (h *Harness) executeFlow(flow []FlowStep, res *Result) {
	for i, step := range flow {
		if step.Fail != nil {
			h.server.Fail(step.Fail.Symbol, step.Fail.Code)
		}

		a := &args{m: step.Args, vars: h.vars}
		value, err := calls[step.Call](h.client, a)
		if a.err != nil {
			res.AddError(fmt.Sprintf("flow[%d] %s: %v", i, step.Call, a.err))
			continue
		}

		ev := TraceEvent{
			Seq:    h.seq.Next(),
			Call:   step.Call,
			Args:   step.Args,
			Result: value,
			Error:  ErrorName(err),
		}
		res.AddTrace(ev)

		if step.Save != "" && err == nil {
			h.vars[step.Save] = value
		}

		h.logger.Debug("flow step completed", "step", i, "call", step.Call, "error", ev.Error)

		for _, msg := range checkExpect(step, value, err) {
			res.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Call, msg))
		}
	}
}

func checkExpect(step FlowStep, value any, err error) []string {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}

	var msgs []string
	if got := ErrorName(err); got != want {
		switch {
		case want == "":
			msgs = append(msgs, fmt.Sprintf("unexpected error: %v", err))
		case err == nil:
			msgs = append(msgs, fmt.Sprintf("expected error %s, got success", want))
		default:
			msgs = append(msgs, fmt.Sprintf("expected error %s, got %s (%v)", want, got, err))
		}
	}

	if step.Expect != nil && step.Expect.Result != nil && err == nil {
		if !valuesMatch(value, step.Expect.Result) {
			msgs = append(msgs, fmt.Sprintf("result mismatch: expected %v, got %v", step.Expect.Result, value))
		}
	}
	return msgs
}

// ErrorName returns the short name of a client error as used in scenario
// expectations: the backend code name for backend errors, "Unsupported",
// "Uninitialized" or "Closed" for client-side failures, and the message for
// anything else. Nil yields "".
func ErrorName(err error) string {
	var be *live.BackendError
	switch {
	case err == nil:
		return ""
	case live.IsUnsupported(err):
		return "Unsupported"
	case errors.Is(err, live.ErrUninitializedClient):
		return "Uninitialized"
	case errors.Is(err, live.ErrClientClosed):
		return "Closed"
	case errors.As(err, &be):
		return be.Code.String()
	default:
		return err.Error()
	}
}
