package events

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFormat(t *testing.T) {
	ts := Timestamp()
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`), ts)
}

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dispatch.jsonl")

	require.NoError(t, Append(path, Record{RunID: "run-1", Command: "researcher", Stage: "research", ReturnCode: 0}))
	require.NoError(t, Append(path, Record{RunID: "run-2", Command: "qa", Stage: "qa", ReturnCode: 1}))

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-1", records[0].RunID)
	assert.Equal(t, "qa", records[1].Command)
	assert.Equal(t, 1, records[1].ReturnCode)
}

func TestReadMissingFile(t *testing.T) {
	records, err := Read(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadSkipsBlankAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.jsonl")
	content := `{"run_id":"ok-1","command":"qa","returncode":0}

not json
{"run_id":"ok-2","command":"review","returncode":2}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ok-1", records[0].RunID)
	assert.Equal(t, "ok-2", records[1].RunID)
}

func TestWriteReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.jsonl")
	require.NoError(t, Append(path, Record{RunID: "stale"}))

	require.NoError(t, Write(path, []Record{
		{RunID: "fresh-1", Command: "implement", ReturnCode: 0},
		{RunID: "fresh-2", Command: "review", ReturnCode: 0},
	}))

	records, err := Read(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fresh-1", records[0].RunID)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
