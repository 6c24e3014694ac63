package amf

import (
	"reflect"
	"testing"
	"time"
)

func roundTripAMF0(t *testing.T, v any) any {
	t.Helper()
	data, err := EncodeAMF0Sequence(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeAMF0Sequence(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 decoded value, got %d", len(out))
	}
	return out[0]
}

func TestAMF0_Primitives(t *testing.T) {
	cases := []any{
		nil,
		true,
		false,
		float64(3.5),
		"hello world",
		Undefined,
	}
	for _, c := range cases {
		got := roundTripAMF0(t, c)
		if !reflect.DeepEqual(got, c) {
			t.Errorf("round trip %#v => %#v", c, got)
		}
	}
}

func TestAMF0_IntegerPromotesToNumber(t *testing.T) {
	got := roundTripAMF0(t, int(42))
	if got != float64(42) {
		t.Errorf("got %#v, want float64(42)", got)
	}
}

func TestAMF0_Date(t *testing.T) {
	in := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	got := roundTripAMF0(t, in)
	gotTime, ok := got.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", got)
	}
	if !gotTime.Equal(in) {
		t.Errorf("got %v, want %v", gotTime, in)
	}
}

func TestAMF0_StrictArray(t *testing.T) {
	in := []any{float64(1), "two", true}
	got := roundTripAMF0(t, in)
	gotArr, ok := got.([]any)
	if !ok || len(gotArr) != 3 {
		t.Fatalf("got %#v", got)
	}
}

func TestAMF0_ArrayReference(t *testing.T) {
	shared := []any{float64(1)}
	got := roundTripAMF0(t, []any{any(shared), any(shared)})
	outer, ok := got.([]any)
	if !ok || len(outer) != 2 {
		t.Fatalf("got %#v", got)
	}
	// Both elements must decode to the very same backing slice (the
	// REFERENCE tag resolving to the first body), not independent copies.
	a, aok := outer[0].([]any)
	b, bok := outer[1].([]any)
	if !aok || !bok {
		t.Fatalf("expected nested arrays, got %#v / %#v", outer[0], outer[1])
	}
	if &a[0] != &b[0] {
		t.Error("expected both references to resolve to the same backing array")
	}
}

func TestAMF0_AnonymousObject(t *testing.T) {
	obj := NewObject()
	obj.Set("a", float64(1))
	obj.Set("b", "two")

	got := roundTripAMF0(t, obj)
	gotObj, ok := got.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", got)
	}
	if v, _ := gotObj.Get("a"); v != float64(1) {
		t.Errorf("a = %v", v)
	}
	if v, _ := gotObj.Get("b"); v != "two" {
		t.Errorf("b = %v", v)
	}
}

func TestAMF0_MixedArray(t *testing.T) {
	m := NewMixedArray()
	m.SetInt(0, "zero")
	m.SetString("name", "value")

	got := roundTripAMF0(t, m)
	gotM, ok := got.(*MixedArray)
	if !ok {
		t.Fatalf("expected *MixedArray, got %T", got)
	}
	if v, _ := gotM.GetInt(0); v != "zero" {
		t.Errorf("int key 0 = %v", v)
	}
	if v, _ := gotM.GetString("name"); v != "value" {
		t.Errorf("string key name = %v", v)
	}
}

func TestAMF0_TypedObjectAlias(t *testing.T) {
	type person struct {
		Name string
		Age  float64
	}
	alias := RegisterClass("test.amf0.Person", &ClassAlias{
		Type:        reflect.TypeOf(person{}),
		StaticAttrs: []string{"Name", "Age"},
		New:         func() any { return &person{} },
	})
	defer func() { delete(aliasesByName, alias.Name) }()

	obj := NewTypedObjectValue(alias)
	obj.Set("Name", "Ada")
	obj.Set("Age", float64(30))

	got := roundTripAMF0(t, obj)
	p, ok := got.(*person)
	if !ok {
		t.Fatalf("expected *person, got %T", got)
	}
	if p.Name != "Ada" || p.Age != 30 {
		t.Errorf("got %+v", p)
	}
}

func TestAMF0_Amf3Switch(t *testing.T) {
	got := roundTripAMF0(t, AMF3Switch(int64(7)))
	if got != int64(7) {
		t.Errorf("got %#v, want int64(7)", got)
	}
}

func TestAMF0Decoder_SendNextShortRead(t *testing.T) {
	full, err := EncodeAMF0Sequence("hi")
	if err != nil {
		t.Fatal(err)
	}
	dec := NewAMF0Decoder(DefaultOptions())
	dec.Send(full[:len(full)-1])
	if _, err := dec.Next(); err != ErrEndOfStream {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
	dec.Send(full[len(full)-1:])
	v, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if v != "hi" {
		t.Errorf("got %#v", v)
	}
}
