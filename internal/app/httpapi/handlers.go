package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sylabs/umlboxd/internal/pkg/gate"
	"github.com/sylabs/umlboxd/internal/pkg/sandbox"
	"github.com/sylabs/umlboxd/internal/pkg/sandbox/notify"
	"github.com/sylabs/umlboxd/internal/pkg/sylog"
)

// Handler holds the dependencies the single /run endpoint needs
// (SPEC_FULL.md §4.8).
type Handler struct {
	Runner *sandbox.Runner
	Gate   *gate.Gate
	Paths  *sandbox.Paths
	Log    *sylog.Logger
}

// NewHandler builds a Handler.
func NewHandler(r *sandbox.Runner, g *gate.Gate, paths *sandbox.Paths, log *sylog.Logger) *Handler {
	return &Handler{Runner: r, Gate: g, Paths: paths, Log: log}
}

// RegisterRoutes wires the routes onto mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/run", h.HandleRun)
	mux.HandleFunc("/healthz", h.HandleHealthz)
}

// HandleRun implements spec.md §4.5's RequestGate contract: acquire the
// file lock for the whole request, then classify and respond.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	release, err := h.Gate.Acquire()
	if err != nil {
		h.Log.Errorf("failed to acquire request gate: %s", err)
		writeStatus(w, http.StatusInternalServerError, "error")
		return
	}
	defer release()

	defer func() {
		if rec := recover(); rec != nil {
			h.Log.Errorf("panic handling request: %v", rec)
			writeStatus(w, http.StatusInternalServerError, "error")
		}
	}()

	if r.Method != http.MethodPost {
		writeStatus(w, http.StatusNotFound, "not_found")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "bad_request")
		return
	}
	defer file.Close()

	if h.Runner.Busy() {
		writeStatus(w, http.StatusInternalServerError, "busy")
		return
	}

	if err := h.saveUpload(file); err != nil {
		h.Log.Errorf("failed to save uploaded archive: %s", err)
		writeStatus(w, http.StatusInternalServerError, "error")
		return
	}

	var notifier sandbox.Notifier
	if target := r.FormValue("notify"); target != "" {
		notifier = notify.New(target, r.FormValue("token"), h.Log)
	}

	if err := h.Runner.Start(h.Paths.IncomingArchive, notifier); err != nil {
		// Runner.Busy() above is advisory under concurrency (two requests
		// can race between the check and Start); Start's own admission
		// check is authoritative and wins invariant §8.6.
		writeStatus(w, http.StatusInternalServerError, "busy")
		return
	}

	writeStatus(w, http.StatusOK, "ok")
}

func (h *Handler) saveUpload(src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(h.Paths.IncomingArchive), 0o755); err != nil {
		return err
	}
	dst, err := os.OpenFile(h.Paths.IncomingArchive, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating incoming archive: %w", err)
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// HandleHealthz reports Runner's busy/idle state (SPEC_FULL.md §4.8 S7).
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.Runner.Busy() {
		writeStatus(w, http.StatusOK, "busy")
		return
	}
	writeStatus(w, http.StatusOK, "idle")
}
