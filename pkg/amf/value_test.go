package amf

import "testing"

func TestObject_SetGetKeysOrder(t *testing.T) {
	o := NewObject()
	o.Set("b", 2)
	o.Set("a", 1)
	o.Set("b", 20) // overwrite should not move position

	keys := o.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("got %v", keys)
	}
	if v, _ := o.Get("b"); v != 20 {
		t.Errorf("b = %v", v)
	}
}

func TestAttrBag_Delete(t *testing.T) {
	b := newAttrBag()
	b.Set("x", 1)
	b.Set("y", 2)
	b.Delete("x")
	if b.Len() != 1 {
		t.Fatalf("expected 1 entry after delete, got %d", b.Len())
	}
	if _, ok := b.Get("x"); ok {
		t.Error("deleted key still present")
	}
}

func TestMixedArray_IntAndStringKeysIndependent(t *testing.T) {
	m := NewMixedArray()
	m.SetInt(0, "int-zero")
	m.SetString("0", "string-zero")

	iv, iok := m.GetInt(0)
	sv, sok := m.GetString("0")
	if !iok || iv != "int-zero" {
		t.Errorf("int key 0 = %v, %v", iv, iok)
	}
	if !sok || sv != "string-zero" {
		t.Errorf("string key \"0\" = %v, %v", sv, sok)
	}
}

func TestUndefined_DistinctFromNil(t *testing.T) {
	var v any = Undefined
	if v == nil {
		t.Error("Undefined must not compare equal to nil")
	}
}
