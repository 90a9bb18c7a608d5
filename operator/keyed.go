package operator

import (
	"github.com/Tangerg/ivm/graph"
	"github.com/Tangerg/ivm/zset"
)

// KeyBy registers a keyBy operator: (V) → (f(V), V), stateless.
func KeyBy[K comparable, V any](g *graph.Graph, input *graph.StreamReader[V], f func(V) (K, error)) (*graph.StreamWriter[zset.KV[K, V]], error) {
	return Map(g, input, func(v V) (zset.KV[K, V], error) {
		k, err := f(v)
		if err != nil {
			return zset.KV[K, V]{}, err
		}
		return zset.KV[K, V]{Key: k, Value: v}, nil
	})
}

// Unkey registers an unkey operator: (K, V) → V, stateless. KeyBy(f)
// followed by Unkey is the identity on multisets of V.
func Unkey[K comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]]) (*graph.StreamWriter[V], error) {
	return Map(g, input, func(kv zset.KV[K, V]) (V, error) {
		return kv.Value, nil
	})
}

// Rekey registers a rekey operator: (K, V) → (g(V), V), stateless.
func Rekey[K, K2 comparable, V any](g *graph.Graph, input *graph.StreamReader[zset.KV[K, V]], f func(V) (K2, error)) (*graph.StreamWriter[zset.KV[K2, V]], error) {
	return Map(g, input, func(kv zset.KV[K, V]) (zset.KV[K2, V], error) {
		k2, err := f(kv.Value)
		if err != nil {
			return zset.KV[K2, V]{}, err
		}
		return zset.KV[K2, V]{Key: k2, Value: kv.Value}, nil
	})
}
