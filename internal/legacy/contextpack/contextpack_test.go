package contextpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceout/aidd-plugin-sub002/internal/deprecation"
)

func TestAllHelpersFailWithFixedMessage(t *testing.T) {
	helpers := map[string]deprecation.StubFunc{
		"WriteTargets":            WriteTargets,
		"CollectContext":          CollectContext,
		"WriteContext":            WriteContext,
		"BuildProjectProfile":     BuildProjectProfile,
		"DetectSrcLayers":         DetectSrcLayers,
		"DetectTests":             DetectTests,
		"IsExcludedTestPath":      IsExcludedTestPath,
		"DetectConfigs":           DetectConfigs,
		"DetectLoggingArtifacts":  DetectLoggingArtifacts,
		"BaselineRecommendations": BaselineRecommendations,
	}
	require.Len(t, helpers, 10)

	for name, helper := range helpers {
		t.Run(name, func(t *testing.T) {
			require.NotNil(t, helper, "name must be bound at package init")

			err := helper()
			require.Error(t, err)
			assert.EqualError(t, err, Message)
		})
	}
}

func TestArgumentsDoNotChangeOutcome(t *testing.T) {
	err := WriteTargets("x", map[string]any{})
	require.Error(t, err)
	assert.EqualError(t, err, Message)

	err = DetectTests(nil, nil, nil, nil)
	require.Error(t, err)
	assert.EqualError(t, err, Message)

	err = IsExcludedTestPath("tests/fixtures/skip_me.py")
	require.Error(t, err)
	assert.EqualError(t, err, Message)
}
