// Package research exposes the canonical research stage entrypoint. The
// stage itself lives in the researcher skill; this package is the
// process-level glue that dispatches it and relays its output.
package research

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/iceout/aidd-plugin-sub002/internal/dispatch"
)

// ErrorExitCode is returned when the stage cannot be dispatched at all
// (as opposed to the stage running and failing).
const ErrorExitCode = 2

type dispatchFunc func(ctx context.Context, command string, opts dispatch.Options) (dispatch.Result, error)

// Main runs the researcher stage with argv. A nil argv sources the
// arguments from the process's own invocation.
func Main(argv []string) int {
	if argv == nil {
		argv = os.Args[1:]
	}
	return run(context.Background(), os.Stdout, os.Stderr, argv, dispatch.Dispatch)
}

func run(ctx context.Context, stdout, stderr io.Writer, argv []string, dispatchStage dispatchFunc) int {
	result, err := dispatchStage(ctx, "researcher", dispatch.Options{Argv: argv})
	if err != nil {
		fmt.Fprintf(stderr, "[aidd] ERROR: %v\n", err)
		return ErrorExitCode
	}
	io.WriteString(stdout, result.Stdout)
	io.WriteString(stderr, result.Stderr)
	return result.ReturnCode
}
