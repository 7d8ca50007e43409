package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "umlboxd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config fixture: %s", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeConfig(t, `
timeout: 30
max_output_size: 1048576
instance_ram: "256M"
sandbox_files_root: "/srv/umlboxd/artifacts"
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if s.TimeoutSeconds != 30 || s.MaxOutputBytes != 1048576 || s.InstanceRAM != "256M" {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.ListenAddr != ":8080" {
		t.Fatalf("expected default listen_addr, got %q", s.ListenAddr)
	}
}

func TestLoadMissingTimeout(t *testing.T) {
	path := writeConfig(t, `
max_output_size: 1048576
instance_ram: "256M"
sandbox_files_root: "/srv/umlboxd/artifacts"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a missing timeout to be startup-fatal")
	}
}

func TestLoadBadInstanceRAM(t *testing.T) {
	path := writeConfig(t, `
timeout: 30
max_output_size: 1048576
instance_ram: "not-a-size"
sandbox_files_root: "/srv/umlboxd/artifacts"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an unparseable instance_ram to be startup-fatal")
	}
}

func TestLoadListenAddrOverride(t *testing.T) {
	path := writeConfig(t, `
timeout: 30
max_output_size: 1048576
instance_ram: "256M"
sandbox_files_root: "/srv/umlboxd/artifacts"
listen_addr: ":9999"
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if s.ListenAddr != ":9999" {
		t.Fatalf("expected overridden listen_addr, got %q", s.ListenAddr)
	}
}
