// Package contextread is a compatibility stub for the legacy researcher
// context read helpers. Deep-context scanning moved to the RLM pack/slice
// tooling; the exported names remain so stale imports fail at call time
// with a clear message rather than compiling against removed logic.
package contextread

import "github.com/iceout/aidd-plugin-sub002/internal/deprecation"

// Message is the fixed error text returned by every helper in this package.
const Message = "researcher_context_read.py is deprecated; use RLM pack/slice via skills/aidd-rlm/runtime/* and researcher/runtime/research.py."

var (
	ScanMatches          = deprecation.Stub(Message)
	IterFiles            = deprecation.Stub(Message)
	CollectDeepContext   = deprecation.Stub(Message)
	CollectCodeIndex     = deprecation.Stub(Message)
	IterCodeFiles        = deprecation.Stub(Message)
	SummariseCodeFile    = deprecation.Stub(Message)
	ScoreReuseCandidates = deprecation.Stub(Message)
)
