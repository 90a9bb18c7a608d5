package zset

// Key returns a stable textual identity for a single record, suitable
// for operators that must track per-record state across steps (e.g.
// distinct's running multiplicity table). It applies the same
// keyed-fast-path-or-generic-fallback rule consolidate uses, but
// per-value rather than classified over a whole batch, since persistent
// cross-step state is keyed one record at a time rather than
// reclassified on every step.
func Key[T any](v T) string {
	if ks, ok := any(v).(keyedShape); ok {
		key := ks.keyPart()
		if isStringOrNumber(key) {
			return keyString(key) + "|" + valueId(ks.valuePart())
		}
	}
	switch x := any(v).(type) {
	case string:
		return "s:" + x
	default:
		if isStringOrNumber(x) {
			return keyString(x)
		}
		return CanonicalHash(x)
	}
}
