// Package contextpack is a compatibility stub for the legacy researcher
// context pack helpers. Research context artifacts were removed in favor of
// RLM artifacts; the exported names remain so stale imports fail at call
// time with a clear message rather than compiling against removed logic.
package contextpack

import "github.com/iceout/aidd-plugin-sub002/internal/deprecation"

// Message is the fixed error text returned by every helper in this package.
const Message = "researcher_context_pack.py is deprecated; use RLM artifacts (rlm-targets/manifest/worklist/pack)."

// All helpers share one failing implementation; argument values never
// change the outcome.
var (
	WriteTargets            = deprecation.Stub(Message)
	CollectContext          = deprecation.Stub(Message)
	WriteContext            = deprecation.Stub(Message)
	BuildProjectProfile     = deprecation.Stub(Message)
	DetectSrcLayers         = deprecation.Stub(Message)
	DetectTests             = deprecation.Stub(Message)
	IsExcludedTestPath      = deprecation.Stub(Message)
	DetectConfigs           = deprecation.Stub(Message)
	DetectLoggingArtifacts  = deprecation.Stub(Message)
	BaselineRecommendations = deprecation.Stub(Message)
)
