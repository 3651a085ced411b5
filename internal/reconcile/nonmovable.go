package reconcile

// DefaultNonMovablePaths are RouterOS collections known not to support the
// `move` command on common firmware versions. Reorder actions are skipped
// unconditionally for any path in this set. Callers may extend or replace
// it via Options.NonMovable.
func DefaultNonMovablePaths() map[string]struct{} {
	return map[string]struct{}{
		"/ip/firewall/raw":     {},
		"/ip/firewall/mangle":  {},
		"/ip/firewall/nat":     {},
		"/ip/firewall/filter":  {},
		"/routing/filter/rule": {},
	}
}
