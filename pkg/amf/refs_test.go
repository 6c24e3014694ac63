package amf

import "testing"

func TestObjectRefs_IdentityDefault(t *testing.T) {
	r := newObjectRefs(false)
	obj := NewObject()

	if idx := r.GetReference(obj); idx != -1 {
		t.Fatalf("expected no reference before Add, got %d", idx)
	}
	idx := r.Add(obj)
	if got := r.GetReference(obj); got != idx {
		t.Errorf("GetReference after Add = %d, want %d", got, idx)
	}

	other := NewObject()
	if r.GetReference(other) != -1 {
		t.Error("distinct pointer must not share a reference")
	}
}

func TestObjectRefs_StructuralHash(t *testing.T) {
	r := newObjectRefs(true)
	a := "repeated-string-value"
	b := "repeated-string-value"

	r.Add(a)
	if r.GetReference(b) == -1 {
		t.Error("structurally equal values should share a reference under StructuralObjectHash")
	}
}

func TestStringRefs_EmptyNeverInserted(t *testing.T) {
	r := newStringRefs()
	r.Add("")
	if r.GetReference("") != -1 {
		t.Error("empty string must never be referenceable")
	}
}

func TestStringRefs_RoundTrip(t *testing.T) {
	r := newStringRefs()
	idx := r.Add("hello")
	got, ok := r.At(idx)
	if !ok || got != "hello" {
		t.Errorf("At(%d) = %q, %v", idx, got, ok)
	}
	if r.GetReference("hello") != idx {
		t.Errorf("GetReference = %d, want %d", r.GetReference("hello"), idx)
	}
}

func TestClassRefs_RoundTrip(t *testing.T) {
	r := newClassRefs()
	alias := &ClassAlias{Name: "com.example.Foo"}
	def := &ClassDefinition{Alias: alias, Attrs: []string{"a", "b"}}

	idx := r.Add(def)
	if r.GetReference(alias) != idx {
		t.Errorf("GetReference = %d, want %d", r.GetReference(alias), idx)
	}
	got, ok := r.At(idx)
	if !ok || got != def {
		t.Errorf("At(%d) = %v, %v", idx, got, ok)
	}
}
