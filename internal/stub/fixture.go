package stub

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Point is a process point served by a stub Server.
type Point struct {
	IESS       string            `yaml:"iess"`
	IDCS       string            `yaml:"idcs,omitempty"`
	ZD         string            `yaml:"zd,omitempty"`
	Desc       string            `yaml:"desc,omitempty"`
	Aux        string            `yaml:"aux,omitempty"`
	RT         string            `yaml:"rt,omitempty"` // A, B, P, D or I; default A
	AR         string            `yaml:"ar,omitempty"` // N, L, E or F; default N
	SID        int32             `yaml:"sid,omitempty"`
	Value      float64           `yaml:"value,omitempty"`
	Quality    string            `yaml:"quality,omitempty"` // default G
	ST         uint32            `yaml:"st,omitempty"`
	AT         int64             `yaml:"at,omitempty"`    // seconds since the epoch
	ATMicros   int64             `yaml:"at_us,omitempty"` // sub-second part
	Fields     map[string]string `yaml:"fields,omitempty"`
	WDPF       map[string]string `yaml:"wdpf,omitempty"`
	SecGroups  []int             `yaml:"sec_groups,omitempty"`
	TechGroups []int             `yaml:"tech_groups,omitempty"`
	Deleted    bool              `yaml:"deleted,omitempty"`
}

// Fixture is the YAML document accepted by LoadFixture.
type Fixture struct {
	Points []Point `yaml:"points"`
}

// LoadFixture reads a point fixture from a YAML file.
func LoadFixture(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	points, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// ParseFixture parses a YAML point fixture. Unknown keys are rejected.
func ParseFixture(data []byte) ([]Point, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := ValidatePoints(f.Points); err != nil {
		return nil, err
	}
	return f.Points, nil
}

// ValidatePoints checks points and fills in their defaults in place.
func ValidatePoints(points []Point) error {
	for i := range points {
		if err := points[i].normalize(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

func (p *Point) normalize() error {
	if p.IESS == "" {
		return fmt.Errorf("missing iess")
	}
	if p.RT == "" {
		p.RT = "A"
	}
	if _, ok := rtNames[p.RT]; !ok {
		return fmt.Errorf("%s: invalid rt %q", p.IESS, p.RT)
	}
	if p.AR == "" {
		p.AR = "N"
	}
	switch p.AR {
	case "N", "L", "E", "F":
	default:
		return fmt.Errorf("%s: invalid ar %q", p.IESS, p.AR)
	}
	if p.Quality == "" {
		p.Quality = "G"
	}
	if len(p.Quality) != 1 {
		return fmt.Errorf("%s: quality must be a single letter, got %q", p.IESS, p.Quality)
	}
	for _, g := range append(append([]int(nil), p.SecGroups...), p.TechGroups...) {
		if g < 0 || g >= groupBits {
			return fmt.Errorf("%s: group %d out of range", p.IESS, g)
		}
	}
	return nil
}

var rtNames = map[string]string{
	"A": "ANALOG",
	"B": "BINARY",
	"P": "PACKED",
	"D": "DOUBLE",
	"I": "INT64",
}
