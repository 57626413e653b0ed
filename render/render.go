// ABOUTME: Renders compiled TikZ documents to SVG files by shelling out to a PDF converter.
// ABOUTME: Classifies hard failures (unrenderable) vs degenerate results (empty or error-tainted).
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/2389-research/sketchtex/tikz"
)

// ErrUnrenderable marks a document that has no visual representation at all:
// it compiled with errors and produced no pages. Callers discard such
// candidates rather than surfacing the error.
var ErrUnrenderable = errors.New("document has no renderable output")

// Rendering is the display-ready materialization of a document. Path points
// at the written SVG file; an empty Path means the document was accepted
// without a visual form (degenerate result). Warnings carry quality signals
// that should reach the user without rejecting the candidate.
type Rendering struct {
	Path       string
	Degenerate bool
	Warnings   []string
}

// Renderer converts a document into a Rendering or fails with ErrUnrenderable.
// Implementations must be safe to call repeatedly on the same document;
// deduplication happens above this layer.
type Renderer interface {
	Render(ctx context.Context, doc tikz.Document) (*Rendering, error)
}

// ConvertFunc turns a PDF payload into an SVG file at outPath. Split out so
// tests can substitute the external converter.
type ConvertFunc func(ctx context.Context, pdf []byte, outPath string) error

// PDFRenderer renders documents by converting their compiled PDF payload to
// SVG with an external converter (pdftocairo by default). Output files are
// created in BuildDir; the caller owns the directory and its cleanup.
type PDFRenderer struct {
	BuildDir string
	Convert  ConvertFunc // defaults to pdftocairo
}

// NewPDFRenderer creates a PDFRenderer writing SVG files into buildDir.
func NewPDFRenderer(buildDir string) *PDFRenderer {
	return &PDFRenderer{BuildDir: buildDir}
}

// Render classifies the document and, when it has pages, writes its first
// page as an SVG file in the build directory.
//
// Classification mirrors the compile outcome:
//   - no pages, compiled with errors: hard failure, ErrUnrenderable
//   - no pages, compiled cleanly: degenerate (empty image), accepted with a warning
//   - pages present, compiled with errors: rendered, accepted with a warning
//   - pages present, compiled cleanly: rendered
func (r *PDFRenderer) Render(ctx context.Context, doc tikz.Document) (*Rendering, error) {
	if !doc.Rasterizable() {
		if doc.CompiledWithErrors {
			return nil, ErrUnrenderable
		}
		return &Rendering{
			Degenerate: true,
			Warnings:   []string{"TikZ code compiled to an empty image"},
		}, nil
	}

	f, err := os.CreateTemp(r.BuildDir, "output-*.svg")
	if err != nil {
		return nil, fmt.Errorf("creating svg file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing svg file: %w", err)
	}

	convert := r.Convert
	if convert == nil {
		convert = pdftocairoConvert
	}
	if err := convert(ctx, doc.PDF, path); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("converting pdf to svg: %w", err)
	}

	rendering := &Rendering{Path: path}
	if doc.CompiledWithErrors {
		rendering.Warnings = append(rendering.Warnings, "TikZ code compiled with errors")
	}
	return rendering, nil
}

// ConverterAvailable checks whether the pdftocairo command is installed.
func ConverterAvailable() bool {
	_, err := exec.LookPath("pdftocairo")
	return err == nil
}

// pdftocairoConvert pipes the PDF payload to pdftocairo and writes the SVG output.
func pdftocairoConvert(ctx context.Context, pdf []byte, outPath string) error {
	if !ConverterAvailable() {
		return fmt.Errorf("pdftocairo command not found: install poppler-utils to render SVG output")
	}

	cmd := exec.CommandContext(ctx, "pdftocairo", "-svg", "-f", "1", "-l", "1", "-", outPath)
	cmd.Stdin = bytes.NewReader(pdf)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pdftocairo failed: %w: %s", err, stderr.String())
	}
	return nil
}
