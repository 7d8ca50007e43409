// Package config loads the supervisor's Settings from a YAML file, the
// on-disk layout the teacher's runtime components are configured from,
// adapted here to the sandbox's own key set (spec.md §6 "Configuration
// keys").
package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"go.yaml.in/yaml/v3"
)

// Settings holds the immutable, process-wide run settings. It is created
// once at startup and never mutated thereafter (spec.md §3 Lifecycle).
type Settings struct {
	TimeoutSeconds   int    `yaml:"timeout"`
	MaxOutputBytes   int64  `yaml:"max_output_size"`
	InstanceRAM      string `yaml:"instance_ram"`
	SandboxFilesRoot string `yaml:"sandbox_files_root"`
	DebugLogFile     string `yaml:"debug_log_file"`
	ListenAddr       string `yaml:"listen_addr"`
}

// Load reads and validates Settings from path. Any failure here is
// startup-fatal in the caller's terms (spec.md §7).
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	s := &Settings{
		ListenAddr: ":8080",
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}

	return s, nil
}

func (s *Settings) validate() error {
	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be a positive integer, got %d", s.TimeoutSeconds)
	}
	if s.MaxOutputBytes <= 0 {
		return fmt.Errorf("max_output_size must be a positive integer, got %d", s.MaxOutputBytes)
	}
	if s.SandboxFilesRoot == "" {
		return fmt.Errorf("sandbox_files_root is required")
	}
	if s.InstanceRAM == "" {
		return fmt.Errorf("instance_ram is required")
	}
	// RAMInBytes only validates the format; the original string is what
	// gets passed to the VM (spec.md §4.3 mem=<instance_ram>).
	if _, err := units.RAMInBytes(s.InstanceRAM); err != nil {
		return fmt.Errorf("instance_ram %q is not a valid size: %w", s.InstanceRAM, err)
	}
	if s.ListenAddr == "" {
		s.ListenAddr = ":8080"
	}
	return nil
}
