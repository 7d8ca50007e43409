package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is a pure value object resolving artifact and work-area paths from
// a single sandbox root and a supervisor install directory. It never
// creates or deletes files; callers do that explicitly (spec.md §4.1).
type Paths struct {
	Kernel    string
	Rootfs    string
	Initrd    string
	OutputTar string
	VMLog     string
	WorkDir   string

	// IncomingArchive is where the HTTP layer saves an uploaded archive
	// before handing its path to Runner.Start. It lives outside WorkDir
	// (which Runner nukes on every run) and is overwritten per run; the
	// RequestGate's admission lock already prevents concurrent writers.
	IncomingArchive string
}

// NewPaths derives all artifact and work paths. sandboxRoot holds the
// read-only VM artifacts (linux.uml, rootfs.squashfs, initrd.img);
// installDir is the supervisor's own install directory, under which a
// work/ subdirectory holds per-run state.
func NewPaths(sandboxRoot, installDir string) *Paths {
	workDir := filepath.Join(installDir, "work")
	return &Paths{
		Kernel:          filepath.Join(sandboxRoot, "linux.uml"),
		Rootfs:          filepath.Join(sandboxRoot, "rootfs.squashfs"),
		Initrd:          filepath.Join(sandboxRoot, "initrd.img"),
		OutputTar:       filepath.Join(workDir, "output.tar"),
		VMLog:           filepath.Join(workDir, "vm.log"),
		WorkDir:         workDir,
		IncomingArchive: filepath.Join(installDir, "incoming", "upload.tar"),
	}
}

// CheckArtifacts verifies the read-only VM artifacts exist. Their absence
// is a fatal startup error (spec.md §3 "Artifact paths... preconditions").
func (p *Paths) CheckArtifacts() error {
	for _, path := range []string{p.Kernel, p.Rootfs, p.Initrd} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("required artifact %q: %w", path, err)
		}
	}
	return nil
}
