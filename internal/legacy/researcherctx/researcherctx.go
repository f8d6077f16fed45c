// Package researcherctx is the deprecated forwarding wrapper for the old
// researcher_context CLI. The legacy context/targets flow was removed in
// favor of RLM-only research artifacts; this wrapper warns on stderr and
// forwards execution to the canonical research stage entrypoint.
package researcherctx

import (
	"fmt"
	"io"
	"os"

	"github.com/iceout/aidd-plugin-sub002/internal/research"
)

// Warning is the single diagnostic line written before delegation.
const Warning = "[aidd] WARN: researcher_context.py is deprecated; forwarding to researcher/runtime/research.py (RLM-only)."

// Entry is the research-stage entrypoint contract consumed by the shim.
// A nil argv means the entrypoint sources arguments from the process's
// own invocation.
type Entry func(argv []string) int

// Run writes the deprecation warning to stderr, then hands argv to entry
// unchanged and returns exactly what it returns. The shim adds no error
// handling of its own; any failure belongs to the delegated entrypoint.
func Run(stderr io.Writer, entry Entry, argv []string) int {
	fmt.Fprintln(stderr, Warning)
	return entry(argv)
}

// Main forwards to the canonical research stage entrypoint.
func Main(argv []string) int {
	return Run(os.Stderr, research.Main, argv)
}
