package zset

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"
)

// Tupled is implemented by keyed-record payload types that are
// themselves a two-tuple, the shape join operators emit: their identity
// is id(a) | id(b) over the two components. Payload types that are not
// tuples fall through to the plain id(V) path.
type Tupled interface {
	Components() (any, any)
}

// Pair2 is the engine's canonical two-tuple payload, used by join
// output records (K, (A, B)) and by topKWithIndex/topKWithFractionalIndex
// output records (V, index).
type Pair2[A, B any] struct {
	First  A
	Second B
}

// Components implements Tupled.
func (p Pair2[A, B]) Components() (any, any) {
	return p.First, p.Second
}

// identityTable assigns a process-unique, monotonically increasing id
// to reference-shaped values (pointers, maps, slices, chans, funcs) the
// first time they are seen, and returns the same id on every subsequent
// sighting of the identical reference. This stands in for a weak
// object-to-id association: Go has no weak-reference primitive, so the
// table is a plain sync.Map keyed by the value's runtime pointer and
// never evicted — a documented limitation, not an oversight, since the
// engine's graphs are short-lived relative to a process.
var (
	identityTable sync.Map // map[uintptr]string
	identityNext  int64
)

func pointerIdentity(ptr uintptr) string {
	if v, ok := identityTable.Load(ptr); ok {
		return v.(string)
	}
	n := atomic.AddInt64(&identityNext, 1)
	s := "#" + strconv.FormatInt(n, 36)
	actual, _ := identityTable.LoadOrStore(ptr, s)
	return actual.(string)
}

// id returns the stable textual identity of x: a direct textual form
// for primitives, and a process-unique stable identifier for
// reference-shaped values.
func id(x any) string {
	switch v := x.(type) {
	case string:
		return "s:" + v
	case int:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int32:
		return "i:" + strconv.FormatInt(int64(v), 10)
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case uint:
		return "u:" + strconv.FormatUint(uint64(v), 10)
	case uint64:
		return "u:" + strconv.FormatUint(v, 10)
	case float32:
		return "f:" + strconv.FormatFloat(float64(v), 'g', -1, 64)
	case float64:
		return "f:" + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(v)
	case nil:
		return "nil"
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return "nil"
		}
		return "r:" + pointerIdentity(rv.Pointer())
	case reflect.Slice:
		if rv.IsNil() {
			return "nil"
		}
		// Slices don't expose a stable single pointer identity across
		// appends, so fall back to content hashing for them.
		return "h:" + CanonicalHash(x)
	default:
		return "h:" + CanonicalHash(x)
	}
}

// valueId computes the composite identity of a keyed record's payload:
// if V is a two-tuple, id(a) | id(b); otherwise id(V).
func valueId(v any) string {
	if t, ok := v.(Tupled); ok {
		a, b := t.Components()
		return id(tupleComponent(a)) + "|" + id(tupleComponent(b))
	}
	return id(v)
}

// tupleComponent unwraps a single level of pointer on a tuple component
// before identity is computed. Join operators carry each side of a row as
// a *A/*B so that a missing outer-join side can be nil; a present side is
// a freshly allocated pointer that is never the same allocation across
// steps, so its address
// can't serve as identity the way a genuinely reference-shaped payload's
// can. Dereferencing here gives the pointee's value identity instead, so
// two join rows with equal underlying values consolidate regardless of
// which allocation produced the pointer. Non-pointer components, and the
// identity of plain (non-tuple) pointer-typed streams elsewhere, are
// unaffected.
func tupleComponent(x any) any {
	rv := reflect.ValueOf(x)
	if rv.Kind() != reflect.Ptr {
		return x
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}

// CanonicalHash returns a stable, deterministic hash string for an
// arbitrary Go value — the generic-fallback canonicalisation, handling
// primitives, pointers, slices, arrays, maps, and structs. Equal values
// (by deep structural equality) produce equal hashes; different values
// produce different hashes modulo hash collisions.
//
// The hash is computed with murmur3 over a deterministic byte encoding
// built by canonicalEncode.
func CanonicalHash(v any) string {
	h := murmur3.New128()
	canonicalEncode(h, reflect.ValueOf(v))
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum)
}

func canonicalEncode(h interface{ Write([]byte) (int, error) }, rv reflect.Value) {
	if !rv.IsValid() {
		h.Write([]byte("nil"))
		return
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			h.Write([]byte("nil"))
			return
		}
		canonicalEncode(h, rv.Elem())
	case reflect.String:
		h.Write([]byte("s:"))
		h.Write([]byte(rv.String()))
	case reflect.Bool:
		if rv.Bool() {
			h.Write([]byte("b:1"))
		} else {
			h.Write([]byte("b:0"))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.Write([]byte("i:" + strconv.FormatInt(rv.Int(), 10)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		h.Write([]byte("u:" + strconv.FormatUint(rv.Uint(), 10)))
	case reflect.Float32, reflect.Float64:
		h.Write([]byte("f:" + strconv.FormatFloat(rv.Float(), 'g', -1, 64)))
	case reflect.Slice, reflect.Array:
		h.Write([]byte("a["))
		n := rv.Len()
		for i := 0; i < n; i++ {
			canonicalEncode(h, rv.Index(i))
			h.Write([]byte(","))
		}
		h.Write([]byte("]"))
	case reflect.Map:
		h.Write([]byte("m{"))
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
		})
		for _, k := range keys {
			canonicalEncode(h, k)
			h.Write([]byte(":"))
			canonicalEncode(h, rv.MapIndex(k))
			h.Write([]byte(","))
		}
		h.Write([]byte("}"))
	case reflect.Struct:
		h.Write([]byte("{"))
		t := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			h.Write([]byte(t.Field(i).Name))
			h.Write([]byte(":"))
			canonicalEncode(h, rv.Field(i))
			h.Write([]byte(","))
		}
		h.Write([]byte("}"))
	default:
		h.Write([]byte(fmt.Sprintf("v:%v", rv)))
	}
}
