// Deprecated legacy entrypoint kept for callers of the removed
// researcher_context CLI. It warns on stderr and forwards to the research
// stage; the process exit code is the stage's own.
package main

import (
	"os"

	"github.com/iceout/aidd-plugin-sub002/internal/legacy/researcherctx"
)

func main() {
	os.Exit(researcherctx.Main(nil))
}
