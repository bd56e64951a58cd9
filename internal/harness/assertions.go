package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/edsapi/internal/stub"
	"github.com/roach88/edsapi/live"
)

// AssertionContext is what assertions inspect after the flow.
type AssertionContext struct {
	Client *live.Client
	Server *stub.Server
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v", ev.Seq, ev.Call, ev.Args)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " -> %s", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(res *Result, assertions []Assertion, ctx *AssertionContext) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluate(res, a, ctx); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluate(res *Result, a Assertion, ctx *AssertionContext) error {
	switch a.Type {
	case AssertTraceCount:
		return assertTraceCount(res.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(res.Trace, a)
	case AssertSubscriptions:
		return assertSubscriptions(ctx, a)
	case AssertWriteRecorded:
		return assertWriteRecorded(ctx.Server, a)
	case AssertBackendCalls:
		return assertBackendCalls(ctx.Server, a)
	case AssertState:
		return assertState(res, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceCount checks that the call appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Call == a.Call {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Call),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the calls appear as a subsequence of the
// trace. Other calls may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Calls) && ev.Call == a.Calls[next] {
			next++
		}
	}
	if next < len(a.Calls) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("calls in order: %v", a.Calls),
			Actual:   fmt.Sprintf("%s not found after %v", a.Calls[next], a.Calls[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertSubscriptions checks the counts on both sides of the ABI.
func assertSubscriptions(ctx *AssertionContext, a Assertion) error {
	in, out := ctx.Client.Subscriptions(a.LID)
	if in != a.Input || out != a.Output {
		return &AssertionError{
			Type:     AssertSubscriptions,
			Expected: fmt.Sprintf("lid %d input=%d output=%d", a.LID, a.Input, a.Output),
			Actual:   fmt.Sprintf("client input=%d output=%d", in, out),
		}
	}
	in, out = ctx.Server.Subscriptions(a.LID)
	if in != a.Input || out != a.Output {
		return &AssertionError{
			Type:     AssertSubscriptions,
			Expected: fmt.Sprintf("lid %d input=%d output=%d", a.LID, a.Input, a.Output),
			Actual:   fmt.Sprintf("backend input=%d output=%d", in, out),
		}
	}
	return nil
}

// assertWriteRecorded checks that the backend received a matching write.
func assertWriteRecorded(srv *stub.Server, a Assertion) error {
	writes := srv.Writes()
	for _, w := range writes {
		if w.Symbol != a.Symbol || w.LID != a.LID {
			continue
		}
		if a.Value != nil && fmt.Sprint(w.Value) != fmt.Sprint(a.Value) {
			continue
		}
		if a.Mask != nil && w.Mask != *a.Mask {
			continue
		}
		return nil
	}

	want := fmt.Sprintf("%s lid=%d", a.Symbol, a.LID)
	if a.Value != nil {
		want += fmt.Sprintf(" value=%v", a.Value)
	}
	if a.Mask != nil {
		want += fmt.Sprintf(" mask=%#x", *a.Mask)
	}
	got := make([]string, len(writes))
	for i, w := range writes {
		got[i] = fmt.Sprintf("%s lid=%d value=%v mask=%#x", w.Symbol, w.LID, w.Value, w.Mask)
	}
	return &AssertionError{
		Type:     AssertWriteRecorded,
		Expected: want,
		Actual:   fmt.Sprintf("writes: [%s]", strings.Join(got, "; ")),
	}
}

// assertBackendCalls checks how often an export was entered.
func assertBackendCalls(srv *stub.Server, a Assertion) error {
	if n := srv.Calls(a.Symbol); n != a.Count {
		return &AssertionError{
			Type:     AssertBackendCalls,
			Expected: fmt.Sprintf("%d calls of %s", a.Count, a.Symbol),
			Actual:   fmt.Sprintf("%d calls", n),
		}
	}
	return nil
}

func assertState(res *Result, a Assertion) error {
	if res.State != a.State {
		return &AssertionError{
			Type:     AssertState,
			Expected: a.State,
			Actual:   res.State,
			Trace:    res.Trace,
		}
	}
	return nil
}

// valuesMatch compares a call result with an expected value parsed from
// YAML. Maps match as subsets; scalars compare by their printed form so
// that int and int32 or float32 and float64 agree.
func valuesMatch(actual, expected any) bool {
	if expected == nil {
		return true
	}
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			av, exists := act[k]
			if !exists || !valuesMatch(av, v) {
				return false
			}
		}
		return true
	case []any:
		av := reflect.ValueOf(actual)
		if av.Kind() != reflect.Slice || av.Len() != len(exp) {
			return false
		}
		for i, v := range exp {
			if !valuesMatch(av.Index(i).Interface(), v) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprint(actual) == fmt.Sprint(expected)
	}
}
