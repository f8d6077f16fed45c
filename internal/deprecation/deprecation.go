// Package deprecation implements the plugin's deprecation convention:
// legacy symbols stay importable but fail loudly when used, so stale
// callers get a message naming the replacement instead of silently
// running removed logic.
package deprecation

// Error is the failure returned by every poison-pill stub. The message is
// fixed at stub construction time and names the replacement path.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StubFunc is the shape shared by all poison-pill stubs. It accepts any
// arguments so legacy call sites keep compiling; the arguments are never
// inspected.
type StubFunc func(args ...any) error

// Stub builds a poison-pill callable bound to a fixed message. The returned
// function fails identically for every invocation regardless of arity or
// argument values, so an argument mismatch can never mask the deprecation
// error.
func Stub(message string) StubFunc {
	err := &Error{Message: message}
	return func(args ...any) error {
		return err
	}
}
