package operator

import (
	"errors"

	"github.com/cespare/xxhash/v2"

	"github.com/Tangerg/ivm/zset"
)

// ErrComparatorRequired is returned by the topK factories when no
// comparator is supplied. Go's generics give no built-in notion of
// natural order for an unconstrained type parameter, so a comparator is
// mandatory here.
var ErrComparatorRequired = errors.New("operator: topK comparator is required")

// Options configures a topK* operator. Limit <= 0 means unlimited.
type Options[V any] struct {
	Limit      int
	Offset     int
	Comparator func(a, b V) int
}

// tieBreak hashes a record's canonical form with xxhash to produce a
// deterministic secondary sort key, used when Comparator reports a tie.
func tieBreak[V any](v V) uint64 {
	return xxhash.Sum64String(zset.Key(v))
}

// windowEntry is one record surviving into a key's sorted view.
type windowEntry[V any] struct {
	value    V
	mult     int64
	identity string
}

// sortedEntries returns the full per-key Z-set's present (Mult > 0)
// records sorted by cmp, ties broken by tieBreak, then by identity
// string for total determinism.
func sortedEntries[V any](full zset.MultiSet[V], cmp func(a, b V) int) []windowEntry[V] {
	pairs := full.Pairs()
	entries := make([]windowEntry[V], 0, len(pairs))
	for _, p := range pairs {
		if p.Mult <= 0 {
			continue
		}
		entries = append(entries, windowEntry[V]{value: p.Value, mult: p.Mult, identity: zset.Key(p.Value)})
	}
	insertionSort(entries, cmp)
	return entries
}

// insertionSort keeps the common case (small per-key groups, mostly
// already ordered across steps) cheap and avoids pulling in sort.Slice's
// reflection-based comparator indirection for a comparator that already
// does the work.
func insertionSort[V any](entries []windowEntry[V], cmp func(a, b V) int) {
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && less(entries[j], entries[j-1], cmp) {
			entries[j], entries[j-1] = entries[j-1], entries[j]
			j--
		}
	}
}

func less[V any](a, b windowEntry[V], cmp func(x, y V) int) bool {
	if c := cmp(a.value, b.value); c != 0 {
		return c < 0
	}
	if ta, tb := tieBreak(a.value), tieBreak(b.value); ta != tb {
		return ta < tb
	}
	return a.identity < b.identity
}

// window slices entries to the contiguous range [offset, offset+limit)
// of the sorted group.
func window[V any](entries []windowEntry[V], opts Options[V]) []windowEntry[V] {
	lo := opts.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > len(entries) {
		lo = len(entries)
	}
	hi := len(entries)
	if opts.Limit > 0 && lo+opts.Limit < hi {
		hi = lo + opts.Limit
	}
	return entries[lo:hi]
}
