package zset

import "strconv"

// Consolidate returns a new MultiSet where each logically distinct
// record appears at most once, with multiplicity equal to the sum of
// its pre-image multiplicities, and all zero-multiplicity records
// removed. The output order is not part of the contract; this
// implementation emits records in order of their first occurrence in m,
// so it is deterministic given deterministic input.
//
// Consolidation is idempotent: Consolidate(Consolidate(m)) is
// logically (not necessarily physically) identical to Consolidate(m).
func (m MultiSet[T]) Consolidate() MultiSet[T] {
	if len(m.pairs) == 0 {
		return MultiSet[T]{}
	}

	if keyed, ok := tryKeyedFastPath(m.pairs); ok {
		return keyed
	}
	return genericFallback(m.pairs)
}

// tryKeyedFastPath implements the keyed fast path: when records are
// KV[K, V] with K a string or number, composite keys of the form
// K|valueId(V) drive aggregation. Any record violating the shape
// mid-scan aborts the fast path (ok=false) and the caller falls back to
// the generic path for the whole multiset.
func tryKeyedFastPath[T any](pairs []Pair[T]) (MultiSet[T], bool) {
	first, ok := any(pairs[0].Value).(keyedShape)
	if !ok {
		return MultiSet[T]{}, false
	}
	if !isStringOrNumber(first.keyPart()) {
		return MultiSet[T]{}, false
	}

	totals := make(map[string]int64, len(pairs))
	reps := make(map[string]T, len(pairs))
	order := make([]string, 0, len(pairs))

	for _, p := range pairs {
		ks, ok := any(p.Value).(keyedShape)
		if !ok {
			return MultiSet[T]{}, false
		}
		key := ks.keyPart()
		if !isStringOrNumber(key) {
			return MultiSet[T]{}, false
		}
		composite := keyString(key) + "|" + valueId(ks.valuePart())
		if _, seen := totals[composite]; !seen {
			order = append(order, composite)
			reps[composite] = p.Value
		}
		totals[composite] += p.Mult
	}

	out := make([]Pair[T], 0, len(order))
	for _, composite := range order {
		if mult := totals[composite]; mult != 0 {
			out = append(out, Pair[T]{Value: reps[composite], Mult: mult})
		}
	}
	return MultiSet[T]{pairs: out}, true
}

// genericFallback is the generic fallback: if every record is a string,
// key by the string; if every record is a number, key by the number;
// otherwise key by CanonicalHash.
func genericFallback[T any](pairs []Pair[T]) MultiSet[T] {
	allStrings, allNumbers := true, true
	for _, p := range pairs {
		switch any(p.Value).(type) {
		case string:
			allNumbers = false
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			allStrings = false
		default:
			allStrings, allNumbers = false, false
		}
		if !allStrings && !allNumbers {
			break
		}
	}

	keyOf := CanonicalHash
	if allStrings {
		keyOf = func(v any) string { return v.(string) }
	} else if allNumbers {
		keyOf = func(v any) string { return keyString(v) }
	}

	totals := make(map[string]int64, len(pairs))
	reps := make(map[string]T, len(pairs))
	order := make([]string, 0, len(pairs))

	for _, p := range pairs {
		k := keyOf(p.Value)
		if _, seen := totals[k]; !seen {
			order = append(order, k)
			reps[k] = p.Value
		}
		totals[k] += p.Mult
	}

	out := make([]Pair[T], 0, len(order))
	for _, k := range order {
		if mult := totals[k]; mult != 0 {
			out = append(out, Pair[T]{Value: reps[k], Mult: mult})
		}
	}
	return MultiSet[T]{pairs: out}
}

// keyString renders a string/number shard key into a stable textual
// form, with a type tag so that e.g. the int 1 and the string "1" never
// collide when used as composite-key components.
func keyString(k any) string {
	switch v := k.(type) {
	case string:
		return "s:" + v
	case int:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int8:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int16:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int32:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case uint:
		return "u:" + strconv.FormatUint(uint64(v), 10)
	case uint8:
		return "u:" + strconv.FormatUint(uint64(v), 10)
	case uint16:
		return "u:" + strconv.FormatUint(uint64(v), 10)
	case uint32:
		return "u:" + strconv.FormatUint(uint64(v), 10)
	case uint64:
		return "u:" + strconv.FormatUint(v, 10)
	case float32:
		return "f:" + strconv.FormatFloat(float64(v), 'g', -1, 64)
	case float64:
		return "f:" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return CanonicalHash(k)
	}
}
