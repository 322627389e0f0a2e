// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

// exit is replaced in tests
var exit = os.Exit

// HandlePanic should be deferred at the top of main() or goroutines.
// It reports the panic with its stack and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(os.Stderr, r, debug.Stack())
		exit(1)
	}
}

// HandlePanicFunc reports a panic, runs cleanup and exits with code 1.
// The listen command uses it to release the audio device first:
//
//	go func() {
//		defer recovery.HandlePanicFunc(func() { _ = capture.Close() })
//		...
//	}()
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(os.Stderr, r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

func report(w io.Writer, r any, stack []byte) {
	_, _ = fmt.Fprintf(w, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
}
