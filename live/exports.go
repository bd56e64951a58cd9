package live

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed exports.cue
var exportsCUE string

// Export describes the backend symbol behind one client operation.
type Export struct {
	Method     string `json:"-"`
	Symbol     string `json:"symbol"`
	Since      string `json:"since"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// ExportTable maps logical operation names (e.g. "readAnalog") to exports.
type ExportTable map[string]Export

// Lookup returns the export of method.
func (t ExportTable) Lookup(method string) (Export, bool) {
	e, ok := t[method]
	return e, ok
}

// Methods returns the operation names in sorted order.
func (t ExportTable) Methods() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	exportsOnce  sync.Once
	exportsTable ExportTable
)

// Exports returns the export table of live backends. The table is compiled
// from an embedded CUE document on first use; an invalid document panics.
func Exports() ExportTable {
	exportsOnce.Do(func() {
		t, err := CompileExports(exportsCUE)
		if err != nil {
			panic(fmt.Sprintf("live: embedded export table: %v", err))
		}
		exportsTable = t
	})
	return exportsTable
}

// CompileExports compiles a CUE export table. The document must define a
// concrete "exports" struct whose entries satisfy #Export.
func CompileExports(src string) (ExportTable, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("exports.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile export table: %w", err)
	}

	ev := v.LookupPath(cue.ParsePath("exports"))
	if !ev.Exists() {
		return nil, fmt.Errorf("export table has no exports field")
	}
	if err := ev.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid export table: %w", err)
	}

	var raw map[string]Export
	if err := ev.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode export table: %w", err)
	}

	table := make(ExportTable, len(raw))
	symbols := make(map[string]string, len(raw))
	for method, e := range raw {
		if prev, dup := symbols[e.Symbol]; dup {
			return nil, fmt.Errorf("symbol %s used by both %s and %s", e.Symbol, prev, method)
		}
		symbols[e.Symbol] = method
		e.Method = method
		table[method] = e
	}
	return table, nil
}
