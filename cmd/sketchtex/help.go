// ABOUTME: Help display for the sketchtex CLI with flags, examples, and environment status.
package main

import (
	"fmt"
	"io"
	"os"
)

// printHelp writes a formatted help message to w, including usage, flags,
// examples, and environment status.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "sketchtex %s — sketch to TikZ web server\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sketchtex [flags]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <file>        Path to YAML config file")
	fmt.Fprintln(w, "  -bind <addr>          Bind address (default: 127.0.0.1:7870)")
	fmt.Fprintln(w, "  -model <name>         Model name for the inference backend")
	fmt.Fprintln(w, "  -data-dir <dir>       Persistent state directory (default: ~/.sketchtex)")
	fmt.Fprintln(w, "  -no-archive           Disable the candidate history archive")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  sketchtex -model detikzify-ds-7b")
	fmt.Fprintln(w, "  sketchtex -config sketchtex.yaml -bind 127.0.0.1:8000")
	fmt.Fprintln(w, "  SKETCHTEX_ALLOW_REMOTE=true sketchtex -bind 0.0.0.0:7870")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  SKETCHTEX_API_KEY     %s\n", envStatus("SKETCHTEX_API_KEY"))
	fmt.Fprintf(w, "  OPENAI_API_KEY        %s\n", envStatus("OPENAI_API_KEY"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  An API key is required unless the backend runs without auth.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/sketchtex")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
