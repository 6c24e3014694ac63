package amf

import (
	"reflect"
	"testing"
)

func TestClassAlias_CompileIsIdempotent(t *testing.T) {
	a := &ClassAlias{StaticAttrs: []string{"b", "a"}}
	a.compile()
	first := append([]string{}, a.StaticAttrs...)
	a.compile()
	if len(a.StaticAttrs) != len(first) {
		t.Fatalf("second compile mutated StaticAttrs: %v vs %v", a.StaticAttrs, first)
	}
}

func TestClassAlias_StaticAttrsSorted(t *testing.T) {
	a := &ClassAlias{StaticAttrs: []string{"zeta", "alpha", "mid"}}
	a.compile()
	want := []string{"alpha", "mid", "zeta"}
	for i, w := range want {
		if a.StaticAttrs[i] != w {
			t.Fatalf("StaticAttrs = %v, want %v", a.StaticAttrs, want)
		}
	}
}

func TestClassAlias_BasesPrependStatics(t *testing.T) {
	base := &ClassAlias{StaticAttrs: []string{"id"}}
	derived := &ClassAlias{StaticAttrs: []string{"name"}, Bases: []*ClassAlias{base}}
	derived.compile()

	found := map[string]bool{}
	for _, s := range derived.StaticAttrs {
		found[s] = true
	}
	if !found["id"] || !found["name"] {
		t.Fatalf("expected both base and derived statics, got %v", derived.StaticAttrs)
	}
}

func TestClassAlias_SealedForcesNotDynamic(t *testing.T) {
	a := &ClassAlias{Sealed: true}
	a.compile()
	if a.Dynamic_() {
		t.Error("a sealed class with no explicit Dynamic policy must resolve non-dynamic")
	}
}

func TestClassAlias_ExplicitDynamicPolicyWins(t *testing.T) {
	a := &ClassAlias{Sealed: true, Dynamic: dynamicDynamic}
	a.compile()
	if !a.Dynamic_() {
		t.Error("explicit dynamicDynamic must override Sealed's default")
	}
}

func TestGetEncodableAttributes_StaticThenDynamicOrder(t *testing.T) {
	a := &ClassAlias{StaticAttrs: []string{"a", "b"}}
	a.compile()

	obj := NewObject()
	obj.Set("b", 2)
	obj.Set("a", 1)
	obj.Set("extra", 3)

	kvs := a.GetEncodableAttributes(obj)
	if len(kvs) < 2 || kvs[0].Key != "a" || kvs[1].Key != "b" {
		t.Fatalf("expected statics first in declared order, got %v", kvs)
	}
}

func TestGetEncodableAttributes_MissingStaticDefaultsUndefined(t *testing.T) {
	a := &ClassAlias{StaticAttrs: []string{"missing"}}
	a.compile()

	obj := NewObject()
	kvs := a.GetEncodableAttributes(obj)
	if len(kvs) != 1 || kvs[0].Value != Undefined {
		t.Fatalf("expected Undefined for missing static attr, got %v", kvs)
	}
}

func TestGetDecodableAttributes_MissingStaticErrors(t *testing.T) {
	a := &ClassAlias{StaticAttrs: []string{"required"}}
	a.compile()

	_, err := a.GetDecodableAttributes(map[string]any{})
	if err == nil {
		t.Fatal("expected ErrMissingStaticAttribute")
	}
}

func TestGetDecodableAttributes_ExcludedDropped(t *testing.T) {
	a := &ClassAlias{ExcludeAttrs: map[string]bool{"secret": true}, Dynamic: dynamicDynamic}
	a.compile()

	out, err := a.GetDecodableAttributes(map[string]any{"secret": 1, "kept": 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["secret"]; ok {
		t.Error("excluded attribute must not be decoded")
	}
	if _, ok := out["kept"]; !ok {
		t.Error("non-excluded attribute must survive")
	}
}

func TestRegisterClassAndLookup(t *testing.T) {
	name := "test.alias.RoundTrip"
	alias := RegisterClass(name, &ClassAlias{})

	got, err := GetClassAliasByName(name)
	if err != nil {
		t.Fatal(err)
	}
	if got != alias {
		t.Error("GetClassAliasByName returned a different alias")
	}
}

func TestGetClassAliasByName_Unknown(t *testing.T) {
	_, err := GetClassAliasByName("no.such.Class")
	if err == nil {
		t.Fatal("expected ErrUnknownClassAlias")
	}
}

func TestIsDict_SetForMapKind(t *testing.T) {
	a := &ClassAlias{Type: reflect.TypeOf(map[string]any{})}
	a.compile()
	if !a.IsDict {
		t.Error("map-kind alias must set IsDict")
	}
}
