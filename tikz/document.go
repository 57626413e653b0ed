// ABOUTME: Candidate TikZ document type with content-hash identity for deduplication.
// ABOUTME: Carries source code, the compile log, and the compiled PDF payload when one exists.
package tikz

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Document is one candidate production: a TikZ program plus the outcome of
// compiling it. Identity is the content hash of the source code, so two
// documents with the same code are the same candidate regardless of where
// they came from.
type Document struct {
	Code               string
	Log                string
	CompiledWithErrors bool
	PDF                []byte // compiled PDF payload, empty when compilation produced no pages
}

// Key returns the stable identity of the document: the sha256 hex digest of
// its source code. Used as a map key wherever documents are deduplicated.
func (d Document) Key() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(d.Code)))
}

// Rasterizable reports whether the document compiled to at least one page
// and can therefore be turned into an image.
func (d Document) Rasterizable() bool {
	return len(d.PDF) > 0
}

// ErrorLines extracts the error lines from the compile log, one per LaTeX
// "!" diagnostic. Returns nil when the log carries no errors.
func (d Document) ErrorLines() []string {
	var errs []string
	for _, line := range strings.Split(d.Log, "\n") {
		if strings.HasPrefix(line, "!") {
			errs = append(errs, strings.TrimSpace(line))
		}
	}
	return errs
}
