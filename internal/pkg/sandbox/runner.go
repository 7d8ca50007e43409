// Package sandbox implements the run lifecycle, the three-process
// supervision pattern, work-directory hygiene, output extraction and
// status classification, and the notification contract (spec.md §1).
package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sylabs/umlboxd/internal/pkg/config"
	"github.com/sylabs/umlboxd/internal/pkg/sylog"
)

// Result is the classified outcome of one run (spec.md §3 "Result status").
type Result string

const (
	ResultFinished Result = "finished"
	ResultFailed   Result = "failed"
	ResultTimeout  Result = "timeout"
)

// Outcome is everything the Notifier needs about a completed run.
type Outcome struct {
	Result     Result
	ExitCode   *int // nil when omitted
	TestOutput string
	Stdout     string
	Stderr     string
}

// Notifier is satisfied by *notify.Notifier; declared here to avoid an
// import cycle since Runner only needs to call it.
type Notifier interface {
	Send(outcome Outcome)
}

// runState is spec.md §3's single enumerated Idle/Busy variable.
type runState int

const (
	stateIdle runState = iota
	stateBusy
)

// Runner owns one run at a time: it prepares the work area, formats the
// output container, launches the VM with the right block-device wiring,
// classifies the result, and extracts outputs (spec.md §4.3).
type Runner struct {
	paths    *Paths
	settings *config.Settings
	log      *sylog.Logger

	mu              sync.Mutex
	state           runState
	currentArchive  string
	currentNotifier Notifier
	currentLogFile  *os.File
	currentRunLog   *sylog.Logger
	sp              *SupervisedProcess
}

// New constructs a Runner and immediately empties the work directory,
// matching spec.md §4.3 "nuke_work_dir! is called both at Runner
// construction and at every start".
func New(paths *Paths, settings *config.Settings, log *sylog.Logger) (*Runner, error) {
	r := &Runner{
		paths:    paths,
		settings: settings,
		log:      log,
	}
	if err := r.nukeWorkDir(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) nukeWorkDir() error {
	if err := os.RemoveAll(r.paths.WorkDir); err != nil {
		return fmt.Errorf("clearing work directory %q: %w", r.paths.WorkDir, err)
	}
	if err := os.MkdirAll(r.paths.WorkDir, 0o755); err != nil {
		return fmt.Errorf("recreating work directory %q: %w", r.paths.WorkDir, err)
	}
	return nil
}

// Busy reports whether a run is currently in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateBusy
}

// Kill forcibly tears down the in-flight run's process group, if any.
// Used for host shutdown; the completion hook may or may not have already
// run by the time Kill returns (spec.md §5).
func (r *Runner) Kill() {
	r.mu.Lock()
	sp := r.sp
	r.mu.Unlock()
	if sp != nil {
		sp.Kill()
	}
}

// Start admits a new run. It returns an error if the Runner is already
// Busy (spec.md §4.3 "Admission"); otherwise it clears the work directory,
// pre-sizes the output archive, and launches the SupervisedProcess. It
// does not block on VM completion (spec.md §5).
func (r *Runner) Start(archivePath string, notifier Notifier) error {
	r.mu.Lock()
	if r.state == stateBusy {
		r.mu.Unlock()
		return fmt.Errorf("sandbox: runner is busy")
	}
	r.state = stateBusy
	r.currentArchive = archivePath
	r.currentNotifier = notifier
	runID := uuid.NewString()
	runLog := r.log.WithField("run_id", runID)
	r.currentRunLog = runLog
	r.mu.Unlock()

	if err := r.nukeWorkDir(); err != nil {
		r.mu.Lock()
		r.state = stateIdle
		r.mu.Unlock()
		return err
	}

	runLog.Infof("admitted run, archive %q", archivePath)

	worker := func() (*exec.Cmd, error) {
		return r.buildWorkerCmd(archivePath)
	}

	r.mu.Lock()
	r.sp = NewSupervisedProcess(time.Duration(r.settings.TimeoutSeconds)*time.Second, worker, r.onComplete, runLog)
	sp := r.sp
	r.mu.Unlock()

	if err := sp.Start(); err != nil {
		r.mu.Lock()
		r.state = stateIdle
		r.mu.Unlock()
		return err
	}
	return nil
}

// buildWorkerCmd implements spec.md §4.3's worker action: close stdin,
// redirect stdout/stderr to vm_log, pre-size the output archive, then
// exec the VM with the block-device wiring. Arguments are passed directly
// as argv entries (no shell is ever invoked), which is the shell-safe
// discipline spec.md §4.3 asks for: there is no shell to escape against.
func (r *Runner) buildWorkerCmd(archivePath string) (*exec.Cmd, error) {
	if err := preSizeFile(r.paths.OutputTar, r.settings.MaxOutputBytes); err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile(r.paths.VMLog, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening vm log %q: %w", r.paths.VMLog, err)
	}
	r.mu.Lock()
	r.currentLogFile = logFile
	r.mu.Unlock()

	cmd := exec.Command(
		r.paths.Kernel,
		"initrd="+r.paths.Initrd,
		"ubdarc="+r.paths.Rootfs,
		"ubdbr="+archivePath,
		"ubdc="+r.paths.OutputTar,
		"mem="+r.settings.InstanceRAM,
		"con=null",
	)
	cmd.Stdin = nil // closed: spec.md §4.3 "Closes standard input"
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	return cmd, nil
}

// onComplete is the completion hook: it classifies the result, extracts
// outputs, and notifies (spec.md §4.3). It runs on the SupervisedProcess's
// supervising goroutine, exactly once per started run.
func (r *Runner) onComplete(status CompletionStatus) {
	outcome := r.classify(status)

	r.mu.Lock()
	notifier := r.currentNotifier
	runLog := r.currentRunLog
	if r.currentLogFile != nil {
		_ = r.currentLogFile.Close()
		r.currentLogFile = nil
	}
	r.state = stateIdle
	r.mu.Unlock()

	if runLog != nil {
		runLog.Infof("run complete: %s", outcome.Result)
	}
	if notifier != nil {
		notifier.Send(outcome)
	}
}

func (r *Runner) classify(status CompletionStatus) Outcome {
	log := r.log
	r.mu.Lock()
	if r.currentRunLog != nil {
		log = r.currentRunLog
	}
	r.mu.Unlock()

	if status.TimedOut {
		log.Infof("run timed out")
		return Outcome{Result: ResultTimeout}
	}

	if status.StartErr != nil {
		log.Errorf("worker failed to start: %s", status.StartErr)
		return Outcome{Result: ResultFailed}
	}

	if status.ExitCode != 0 {
		log.Infof("worker exited non-zero: %d", status.ExitCode)
		return Outcome{Result: ResultFailed}
	}

	code, ok, err := readExitCode(r.paths.OutputTar)
	if err != nil {
		log.Warnf("failed to extract exit_code.txt: %s", err)
		return Outcome{Result: ResultFailed}
	}

	outcome := Outcome{
		TestOutput: readBestEffort(r.paths.OutputTar, "test_output.txt"),
		Stdout:     readBestEffort(r.paths.OutputTar, "stdout.txt"),
		Stderr:     readBestEffort(r.paths.OutputTar, "stderr.txt"),
	}

	if !ok {
		outcome.Result = ResultFailed
		return outcome
	}

	ec := code
	outcome.ExitCode = &ec
	if code == 0 {
		outcome.Result = ResultFinished
	} else {
		outcome.Result = ResultFailed
	}
	return outcome
}
