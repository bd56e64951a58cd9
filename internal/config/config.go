// Package config loads connection profiles for edsctl.
//
// A profile is a YAML (.yaml, .yml) or TOML (.toml) file describing which
// backend to load, how to reach the server and which points to use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load.
const (
	DefaultLocalHost  = "0.0.0.0"
	DefaultRemotePort = 43000
	DefaultMaxPacket  = 32767
	DefaultInterval   = time.Second
	DefaultIterations = 60
	DefaultAccess     = "readwrite"
)

// Profile is a connection profile.
type Profile struct {
	// Version is the EDS version whose backend is loaded, e.g. "9.2".
	Version string `yaml:"version" toml:"version"`

	// LibDir overrides the backend search path.
	LibDir string `yaml:"lib_dir" toml:"lib_dir"`

	// Logger is passed verbatim to the backend's logger setup.
	Logger string `yaml:"logger" toml:"logger"`

	// Access is read, write or readwrite.
	Access string `yaml:"access" toml:"access"`

	// Program and Instance identify an agent; User and Password a user.
	// User credentials take precedence when both are set.
	Program  string `yaml:"program" toml:"program"`
	Instance string `yaml:"instance" toml:"instance"`
	User     string `yaml:"user" toml:"user"`
	Password string `yaml:"password" toml:"password"`

	LocalHost      string `yaml:"local_host" toml:"local_host"`
	LocalPort      uint16 `yaml:"local_port" toml:"local_port"`
	LocalPortRange uint16 `yaml:"local_port_range" toml:"local_port_range"`
	RemoteHost     string `yaml:"remote_host" toml:"remote_host"`
	RemotePort     uint16 `yaml:"remote_port" toml:"remote_port"`
	MaxPacket      uint16 `yaml:"max_packet" toml:"max_packet"`

	// Inputs and Outputs are IESS names.
	Inputs  []string `yaml:"inputs" toml:"inputs"`
	Outputs []string `yaml:"outputs" toml:"outputs"`

	Interval   Duration `yaml:"interval" toml:"interval"`
	Iterations int      `yaml:"iterations" toml:"iterations"`
}

// Duration is a time.Duration written as a string such as "500ms".
type Duration time.Duration

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.parse(n.Value)
}

// UnmarshalText implements encoding.TextUnmarshaler, used by TOML.
func (d *Duration) UnmarshalText(b []byte) error {
	return d.parse(string(b))
}

// Load reads a profile, applies defaults and validates it.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var p *Profile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		p, err = ParseYAML(data)
	case ".toml":
		p, err = ParseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseYAML parses a YAML profile. Unknown keys are rejected.
func ParseYAML(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&p)
}

// ParseTOML parses a TOML profile. Unknown keys are rejected.
func ParseTOML(data []byte) (*Profile, error) {
	var p Profile
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return finish(&p)
}

func finish(p *Profile) (*Profile, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyDefaults fills unset fields.
func (p *Profile) ApplyDefaults() {
	if p.LocalHost == "" {
		p.LocalHost = DefaultLocalHost
	}
	if p.RemotePort == 0 {
		p.RemotePort = DefaultRemotePort
	}
	if p.MaxPacket == 0 {
		p.MaxPacket = DefaultMaxPacket
	}
	if p.Access == "" {
		p.Access = DefaultAccess
	}
	if p.Interval == 0 {
		p.Interval = Duration(DefaultInterval)
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultIterations
	}
}

// Validate reports every problem with the profile.
func (p *Profile) Validate() error {
	var errs []error
	if p.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}
	if p.RemoteHost == "" {
		errs = append(errs, errors.New("remote_host is required"))
	}
	switch p.Access {
	case "read", "write", "readwrite":
	default:
		errs = append(errs, fmt.Errorf("access must be read, write or readwrite, got %q", p.Access))
	}
	if p.User == "" && p.Password != "" {
		errs = append(errs, errors.New("password set without user"))
	}
	if p.Interval < 0 {
		errs = append(errs, errors.New("interval must not be negative"))
	}
	if p.Iterations < 0 {
		errs = append(errs, errors.New("iterations must not be negative"))
	}
	seen := map[string]bool{}
	for _, name := range p.Inputs {
		seen[name] = true
	}
	for _, name := range p.Outputs {
		if seen[name] {
			errs = append(errs, fmt.Errorf("point %s is both input and output", name))
		}
	}
	return errors.Join(errs...)
}
