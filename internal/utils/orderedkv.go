package utils

import (
	"bytes"
	"encoding/json"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a keyed collection that remembers the order in which keys
// were first written.
type OrderedKVMap[T any] struct {
	entries map[string]OrderedKV[T]
	next    int64
}

func NewOrderedKVMap[T any](capacity int) *OrderedKVMap[T] {
	return &OrderedKVMap[T]{
		entries: make(map[string]OrderedKV[T], capacity),
	}
}

// Set stores value under key. A rewrite replaces the value and keeps the
// key's original position.
func (om *OrderedKVMap[T]) Set(key string, value T) {
	if kv, ok := om.entries[key]; ok {
		kv.Value = value
		om.entries[key] = kv
		return
	}
	om.entries[key] = OrderedKV[T]{Value: value, Order: om.next}
	om.next++
}

func (om *OrderedKVMap[T]) Get(key string) (T, bool) {
	kv, ok := om.entries[key]
	return kv.Value, ok
}

func (om *OrderedKVMap[T]) Len() int {
	return len(om.entries)
}

type orderedPair[T any] struct {
	key   string
	value T
	order int64
}

func (om *OrderedKVMap[T]) pairs() []orderedPair[T] {
	pairs := make([]orderedPair[T], 0, len(om.entries))
	for k, v := range om.entries {
		pairs = append(pairs, orderedPair[T]{
			key:   k,
			value: v.Value,
			order: v.Order,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].order < pairs[j].order
	})
	return pairs
}

// Values returns the stored values in first-write order.
func (om *OrderedKVMap[T]) Values() []T {
	pairs := om.pairs()
	values := make([]T, 0, len(pairs))
	for _, p := range pairs {
		values = append(values, p.value)
	}
	return values
}

func (om *OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range om.pairs() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
