// Command umlboxd is the sandbox supervisor's entrypoint: a cobra CLI in
// the teacher's cmd/ layout, wiring Config → Paths → Runner → Gate →
// httpapi (SPEC_FULL.md §4.9).
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sylabs/umlboxd/internal/app/httpapi"
	"github.com/sylabs/umlboxd/internal/pkg/config"
	"github.com/sylabs/umlboxd/internal/pkg/gate"
	"github.com/sylabs/umlboxd/internal/pkg/sandbox"
	"github.com/sylabs/umlboxd/internal/pkg/sylog"
)

var (
	configPath   string
	installDir   string
	addrOverride string
	debug        bool
)

func main() {
	root := &cobra.Command{
		Use:   "umlboxd",
		Short: "Single-tenant UML sandbox supervisor",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sandbox supervisor HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML config file (required)")
	serveCmd.Flags().StringVar(&installDir, "install-dir", ".", "supervisor install directory (work/ and incoming/ live here)")
	serveCmd.Flags().StringVar(&addrOverride, "addr", "", "override the config file's listen_addr")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = serveCmd.MarkFlagRequired("config")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	bootLog, err := sylog.New(debug, "")
	if err != nil {
		return err
	}

	settings, err := config.Load(configPath)
	if err != nil {
		bootLog.Fatalf("loading config: %s", err)
	}
	if addrOverride != "" {
		settings.ListenAddr = addrOverride
	}

	log, err := sylog.New(debug, settings.DebugLogFile)
	if err != nil {
		bootLog.Fatalf("initializing log file %q: %s", settings.DebugLogFile, err)
	}

	absInstall, err := filepath.Abs(installDir)
	if err != nil {
		log.Fatalf("resolving install dir: %s", err)
	}

	paths := sandbox.NewPaths(settings.SandboxFilesRoot, absInstall)
	if err := paths.CheckArtifacts(); err != nil {
		log.Fatalf("startup: %s", err)
	}

	runner, err := sandbox.New(paths, settings, log)
	if err != nil {
		log.Fatalf("initializing runner: %s", err)
	}

	requestGate := gate.New(filepath.Join(absInstall, "umlboxd.lock"))
	handler := httpapi.NewHandler(runner, requestGate, paths, log)
	server := httpapi.NewServer(settings.ListenAddr, handler)

	color.Green("umlboxd listening on %s", settings.ListenAddr)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorf("server exited: %s", err)
			return err
		}
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		// A run in flight has no guaranteed notification past this point
		// (spec.md §5 "Cancellation & timeout" — kill is terminal).
		if runner.Busy() {
			runner.Kill()
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warnf("graceful shutdown failed: %s", err)
		}
	}
	return nil
}

const shutdownGrace = 5 * time.Second
