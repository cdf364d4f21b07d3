//go:build !blockflow_debug

package assert

// That is a no-op in release builds: the engine trusts its own
// bookkeeping instead of re-checking every invariant on the hot path.
func That(cond bool, format string, args ...any) {}
