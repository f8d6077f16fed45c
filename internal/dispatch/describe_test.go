package dispatch

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableJSONGolden(t *testing.T) {
	tableJSON, err := TableJSON()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dispatch_table", tableJSON)
}

func TestFormatTable(t *testing.T) {
	table := FormatTable()

	assert.Contains(t, table, "COMMAND")
	assert.Contains(t, table, "ALIAS")
	for _, name := range SupportedCommands() {
		assert.Contains(t, table, name)
	}
	assert.Contains(t, table, "aidd-research-flow")

	// Deterministic ordering: researcher precedes review.
	assert.Less(t, strings.Index(table, "researcher"), strings.Index(table, "review"))
}
