// ABOUTME: Tests for the .env loader: parsing, quoting, comments, and no-clobber behavior.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDotEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"plain", "A=hello\nB=world\n", map[string]string{"A": "hello", "B": "world"}},
		{"double quoted", `Q="quoted value"`, map[string]string{"Q": "quoted value"}},
		{"single quoted", `S='single quoted'`, map[string]string{"S": "single quoted"}},
		{"export prefix", "export E=exported\n", map[string]string{"E": "exported"}},
		{"value with equals", "EQ=a=b=c\n", map[string]string{"EQ": "a=b=c"}},
		{"comments and blanks", "# comment\n\nC=yes\n", map[string]string{"C": "yes"}},
		{"no equals ignored", "JUSTAWORD\n", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDotEnv(strings.NewReader(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("parseDotEnv() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseDotEnv()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_A=hello\n")
	t.Setenv("TEST_DOTENV_A", "")
	os.Unsetenv("TEST_DOTENV_A")

	loadDotEnv(path)

	if got := os.Getenv("TEST_DOTENV_A"); got != "hello" {
		t.Errorf("expected TEST_DOTENV_A=hello, got %q", got)
	}
}

func TestLoadDotEnvDoesNotClobberExisting(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_X=from_file")
	t.Setenv("TEST_DOTENV_X", "already_set")

	loadDotEnv(path)

	if got := os.Getenv("TEST_DOTENV_X"); got != "already_set" {
		t.Errorf("expected existing env var to be preserved, got %q", got)
	}
}

func TestLoadDotEnvMissingFileIsNoOp(t *testing.T) {
	// Should not panic or error when the file doesn't exist.
	loadDotEnv("/tmp/this-env-file-definitely-does-not-exist")
}
