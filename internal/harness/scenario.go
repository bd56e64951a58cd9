package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edsapi/internal/stub"
)

// Scenario is a scripted session against a stub backend.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Version is the EDS version of the simulated backend.
	Version string `yaml:"version"`

	// Fixture is a point fixture file, relative to the scenario file.
	Fixture string `yaml:"fixture,omitempty"`

	// Points are inline points, appended after the fixture's.
	Points []stub.Point `yaml:"points,omitempty"`

	// Omit lists exports missing from the backend.
	Omit []string `yaml:"omit,omitempty"`

	// InitCode is returned by the backend's initialization functions.
	InitCode int32 `yaml:"init_code,omitempty"`

	// PendingSyncs is the number of NotSynchronized results before the
	// first successful SynchronizeInput of a connection.
	PendingSyncs int `yaml:"pending_syncs,omitempty"`

	// Flow contains the calls to make, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the trace and the backend afterwards.
	Assertions []Assertion `yaml:"assertions"`

	dir string
}

// FlowStep is one client call.
type FlowStep struct {
	// Call is the operation name, e.g. "readAnalog". See Calls.
	Call string `yaml:"call"`

	// Args are the call's arguments by name. A string "$name" refers to
	// a result saved by an earlier step.
	Args map[string]any `yaml:"args,omitempty"`

	// Fail injects a backend failure before the call.
	Fail *Failure `yaml:"fail,omitempty"`

	// Save stores the call's result under this name.
	Save string `yaml:"save,omitempty"`

	// Expect validates the outcome. Without it the call must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Failure makes the next call of Symbol return Code.
type Failure struct {
	Symbol string `yaml:"symbol"`
	Code   int32  `yaml:"code"`
}

// ExpectClause specifies the expected outcome of a call.
type ExpectClause struct {
	// Error is the expected error name: a backend code name such as
	// "NotSynchronized", or one of "Unsupported", "Uninitialized" and
	// "Closed". Empty means success.
	Error string `yaml:"error,omitempty"`

	// Result is the expected result. Maps are matched as subsets.
	Result any `yaml:"result,omitempty"`
}

// Assertion validates the run after the flow.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Call is the operation counted by trace_count.
	Call string `yaml:"call,omitempty"`

	// Calls is the expected order for trace_order.
	Calls []string `yaml:"calls,omitempty"`

	// Count is the expected number for trace_count and backend_calls.
	Count int `yaml:"count,omitempty"`

	// Symbol is the backend export for backend_calls and write_recorded.
	Symbol string `yaml:"symbol,omitempty"`

	// LID is the point for subscriptions and write_recorded.
	LID int32 `yaml:"lid,omitempty"`

	// Input and Output are the expected subscription counts.
	Input  int `yaml:"input,omitempty"`
	Output int `yaml:"output,omitempty"`

	// Value and Mask describe the expected write. Mask is optional.
	Value any     `yaml:"value,omitempty"`
	Mask  *uint32 `yaml:"mask,omitempty"`

	// State is the expected client state for the state assertion.
	State string `yaml:"state,omitempty"`
}

// Assertion types.
const (
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertSubscriptions = "subscriptions"
	AssertWriteRecorded = "write_recorded"
	AssertBackendCalls  = "backend_calls"
	AssertState         = "state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected; the fixture path is resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)

	if s.Fixture != "" {
		if _, err := os.Stat(s.fixturePath()); err != nil {
			return nil, fmt.Errorf("invalid scenario: fixture not found: %s", s.fixturePath())
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML. A relative fixture path is resolved
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func (s *Scenario) fixturePath() string {
	if filepath.IsAbs(s.Fixture) || s.dir == "" {
		return s.Fixture
	}
	return filepath.Join(s.dir, s.Fixture)
}

// points returns the fixture's points followed by the inline ones.
func (s *Scenario) points() ([]stub.Point, error) {
	var points []stub.Point
	if s.Fixture != "" {
		p, err := stub.LoadFixture(s.fixturePath())
		if err != nil {
			return nil, err
		}
		points = p
	}
	points = append(points, s.Points...)
	if err := stub.ValidatePoints(points); err != nil {
		return nil, err
	}
	return points, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.PendingSyncs < 0 {
		return fmt.Errorf("pending_syncs must be non-negative")
	}
	if err := stub.ValidatePoints(s.Points); err != nil {
		return fmt.Errorf("points: %w", err)
	}

	for i, step := range s.Flow {
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}
		if _, ok := calls[step.Call]; !ok {
			return fmt.Errorf("flow[%d]: unknown call %q", i, step.Call)
		}
		if step.Fail != nil && step.Fail.Symbol == "" {
			return fmt.Errorf("flow[%d].fail: symbol is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertBackendCalls:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for backend_calls", index)
		}
	case AssertWriteRecorded:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for write_recorded", index)
		}
	case AssertSubscriptions:
		if a.Input < 0 || a.Output < 0 {
			return fmt.Errorf("assertions[%d]: subscription counts must be non-negative", index)
		}
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
