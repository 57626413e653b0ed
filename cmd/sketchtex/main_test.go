// ABOUTME: Tests for the sketchtex CLI entrypoint: flag parsing and help output.
package main

import (
	"os"
	"strings"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"sketchtex"}
	cfg := parseFlags()

	if cfg.configFile != "" {
		t.Errorf("expected empty configFile, got %q", cfg.configFile)
	}
	if cfg.bind != "" {
		t.Errorf("expected empty bind, got %q", cfg.bind)
	}
	if cfg.noArchive {
		t.Error("expected noArchive=false by default")
	}
	if cfg.showVersion {
		t.Error("expected showVersion=false by default")
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{
		"sketchtex",
		"-config", "conf.yaml",
		"-bind", "127.0.0.1:9000",
		"-model", "detikzify-ds-7b",
		"-data-dir", "/tmp/st",
		"-no-archive",
	}
	cfg := parseFlags()

	if cfg.configFile != "conf.yaml" {
		t.Errorf("configFile = %q", cfg.configFile)
	}
	if cfg.bind != "127.0.0.1:9000" {
		t.Errorf("bind = %q", cfg.bind)
	}
	if cfg.model != "detikzify-ds-7b" {
		t.Errorf("model = %q", cfg.model)
	}
	if cfg.dataDir != "/tmp/st" {
		t.Errorf("dataDir = %q", cfg.dataDir)
	}
	if !cfg.noArchive {
		t.Error("noArchive = false, want true")
	}
}

func TestPrintHelp(t *testing.T) {
	var sb strings.Builder
	printHelp(&sb, "1.2.3")
	out := sb.String()

	for _, want := range []string{"sketchtex 1.2.3", "-config", "-bind", "-model", "SKETCHTEX_API_KEY"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRunRejectsMissingModel(t *testing.T) {
	for _, key := range []string{"SKETCHTEX_MODEL", "SKETCHTEX_BIND", "SKETCHTEX_DATA_DIR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("SKETCHTEX_DATA_DIR", t.TempDir())

	if code := run(cliConfig{noArchive: true}); code != 1 {
		t.Errorf("run() = %d without a model, want 1", code)
	}
}
