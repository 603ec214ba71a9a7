package utils

import (
	"testing"
)

func TestOrderedKVMapRewriteKeepsPosition(t *testing.T) {
	om := NewOrderedKVMap[int](0)
	om.Set("a", 1)
	om.Set("b", 2)
	om.Set("a", 3)

	values := om.Values()
	if len(values) != 2 || values[0] != 3 || values[1] != 2 {
		t.Fatalf("unexpected values %v", values)
	}

	v, ok := om.Get("a")
	if !ok || v != 3 {
		t.Fatalf("expected a=3, got %v %v", v, ok)
	}
	if om.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", om.Len())
	}
}

func TestOrderedKVMapMarshalJSON(t *testing.T) {
	om := NewOrderedKVMap[string](2)
	om.Set("z", "last")
	om.Set("a", "first")

	b, err := om.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"z":"last","a":"first"}` {
		t.Fatalf("unexpected json %s", b)
	}
}
