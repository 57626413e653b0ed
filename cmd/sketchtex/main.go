// ABOUTME: CLI entrypoint for the sketchtex web server.
// ABOUTME: Wires config, candidate archive, session store, and HTTP serving with signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/2389-research/sketchtex/store"
	"github.com/2389-research/sketchtex/webui"
)

var version = "dev"

// cliConfig holds command-line configuration. Flags override environment
// variables, which override the config file.
type cliConfig struct {
	configFile  string
	bind        string
	model       string
	dataDir     string
	noArchive   bool
	showVersion bool
}

func main() {
	loadDotEnvAuto()

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("sketchtex %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated cliConfig.
func parseFlags() cliConfig {
	var cfg cliConfig

	fs := flag.NewFlagSet("sketchtex", flag.ContinueOnError)
	fs.StringVar(&cfg.configFile, "config", "", "Path to YAML config file")
	fs.StringVar(&cfg.bind, "bind", "", "Bind address (default: 127.0.0.1:7870)")
	fs.StringVar(&cfg.model, "model", "", "Model name for the inference backend")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "Data directory for persistent state (default: ~/.sketchtex)")
	fs.BoolVar(&cfg.noArchive, "no-archive", false, "Disable the candidate history archive")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	return cfg
}

// run loads configuration and starts the HTTP server.
// Returns an exit code: 0 for success, 1 for failure.
func run(cli cliConfig) int {
	// Flags land in the environment so the normal config overlay applies.
	if cli.bind != "" {
		os.Setenv("SKETCHTEX_BIND", cli.bind)
	}
	if cli.model != "" {
		os.Setenv("SKETCHTEX_MODEL", cli.model)
	}
	if cli.dataDir != "" {
		os.Setenv("SKETCHTEX_DATA_DIR", cli.dataDir)
	}

	cfg, err := webui.LoadConfig(cli.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.BuildDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating build dir: %v\n", err)
		return 1
	}

	var archive *store.Archive
	if !cli.noArchive {
		archive, err = store.OpenArchive(filepath.Join(cfg.DataDir, "archive.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open archive, history disabled: %v\n", err)
		} else {
			defer archive.Close()
		}
	}

	sessions := webui.NewStore(cfg.BuildDir, archive, cfg.MaxSessions, cfg.SessionTTL)
	stopCleanup := sessions.StartCleanup(time.Minute)
	defer stopCleanup()

	server := webui.NewServer(sessions, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
		}
	}()

	log.Printf("sketchtex listening addr=%s model=%s", cfg.Bind, cfg.Model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
