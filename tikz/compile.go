// ABOUTME: Compiles TikZ source into a Document by shelling out to pdflatex.
// ABOUTME: Classifies the outcome from the compile log and captures any produced PDF payload.
package tikz

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compiler turns TikZ source code into a Document. Implementations may run a
// real TeX toolchain or substitute a fake in tests.
type Compiler interface {
	Compile(ctx context.Context, code string) (Document, error)
}

// LatexCompiler compiles TikZ source with pdflatex in a scratch directory.
// A failed compile is not an error: the resulting Document records the log
// and the CompiledWithErrors flag, and carries whatever PDF pages were still
// produced. Only environment failures (missing binary, unwritable dir)
// return an error.
type LatexCompiler struct {
	BuildDir string
	Command  string // defaults to "pdflatex"
}

// Available checks whether the configured TeX command is installed.
func (c *LatexCompiler) Available() bool {
	_, err := exec.LookPath(c.command())
	return err == nil
}

func (c *LatexCompiler) command() string {
	if c.Command != "" {
		return c.Command
	}
	return "pdflatex"
}

// Compile runs the TeX command on the given source and assembles a Document.
func (c *LatexCompiler) Compile(ctx context.Context, code string) (Document, error) {
	dir, err := os.MkdirTemp(c.BuildDir, "compile-")
	if err != nil {
		return Document{}, fmt.Errorf("creating compile dir: %w", err)
	}
	defer os.RemoveAll(dir)

	texPath := filepath.Join(dir, "job.tex")
	if err := os.WriteFile(texPath, []byte(code), 0644); err != nil {
		return Document{}, fmt.Errorf("writing tex source: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command(),
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", dir,
		texPath,
	)
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return Document{}, ctx.Err()
	}

	logData, _ := os.ReadFile(filepath.Join(dir, "job.log"))
	doc := Document{
		Code:               code,
		Log:                string(logData),
		CompiledWithErrors: runErr != nil || logContainsErrors(string(logData)),
	}

	if pdf, err := os.ReadFile(filepath.Join(dir, "job.pdf")); err == nil {
		doc.PDF = pdf
	}

	// A compile that produced neither a PDF nor a log means the toolchain
	// itself failed to run.
	if runErr != nil && len(doc.PDF) == 0 && doc.Log == "" {
		return Document{}, fmt.Errorf("running %s: %w", c.command(), runErr)
	}

	return doc, nil
}

// logContainsErrors reports whether a LaTeX log carries "!" error diagnostics.
func logContainsErrors(log string) bool {
	for _, line := range strings.Split(log, "\n") {
		if strings.HasPrefix(line, "!") {
			return true
		}
	}
	return false
}
