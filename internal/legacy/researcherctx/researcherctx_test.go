package researcherctx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWarnsBeforeDelegating(t *testing.T) {
	var stderr bytes.Buffer
	var order []string

	entry := func(argv []string) int {
		order = append(order, "delegate")
		// The warning must already be on stderr when the delegate runs.
		assert.Equal(t, Warning+"\n", stderr.String())
		return 0
	}

	code := Run(&stderr, entry, []string{})
	require.Equal(t, 0, code)
	require.Equal(t, []string{"delegate"}, order)

	lines := strings.Split(strings.TrimRight(stderr.String(), "\n"), "\n")
	assert.Len(t, lines, 1, "exactly one diagnostic line")
	assert.Equal(t, Warning, lines[0])
}

func TestRunReturnsDelegateCodeUnchanged(t *testing.T) {
	for _, code := range []int{0, 1, 2, 124} {
		var stderr bytes.Buffer
		got := Run(&stderr, func([]string) int { return code }, nil)
		assert.Equal(t, code, got)
	}
}

func TestRunPassesArgvThrough(t *testing.T) {
	cases := []struct {
		name string
		argv []string
		code int
	}{
		{name: "nil argv", argv: nil, code: 0},
		{name: "empty argv", argv: []string{}, code: 0},
		{name: "target flag", argv: []string{"--target", "foo"}, code: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stderr bytes.Buffer
			var seen []string
			called := false

			got := Run(&stderr, func(argv []string) int {
				called = true
				seen = argv
				return tc.code
			}, tc.argv)

			require.True(t, called)
			assert.Equal(t, tc.code, got)
			assert.Equal(t, tc.argv, seen, "argv must be forwarded unchanged")
			assert.Equal(t, Warning+"\n", stderr.String())
		})
	}
}
