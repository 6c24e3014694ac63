package amf

import (
	"reflect"
	"testing"
)

type customPoint struct{ X, Y int }

func TestAddType_EncodeHandlerRewritesValue(t *testing.T) {
	ResetCustomDispatch()
	defer ResetCustomDispatch()

	AddType(TypeHandler{
		Type: reflect.TypeOf(customPoint{}),
		Handle: func(v any) (any, error) {
			p := v.(customPoint)
			return []any{int64(p.X), int64(p.Y)}, nil
		},
	})

	data, err := EncodeAMF3Sequence(customPoint{X: 1, Y: 2})
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeAMF3Sequence(data)
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := out[0].([]any)
	if !ok || len(arr) != 2 || arr[0] != int64(1) || arr[1] != int64(2) {
		t.Fatalf("got %#v", out[0])
	}
}

func TestAddPostDecodeProcessor_RunsOnceAtRootDepth(t *testing.T) {
	ResetCustomDispatch()
	defer ResetCustomDispatch()

	calls := 0
	AddPostDecodeProcessor(func(root any) any {
		calls++
		return root
	})

	data, err := EncodeAMF3Sequence([]any{int64(1), []any{int64(2)}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeAMF3Sequence(data); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 post-decode call for one root value, got %d", calls)
	}
}

func TestDispatchCustomType_FirstMatchWins(t *testing.T) {
	ResetCustomDispatch()
	defer ResetCustomDispatch()

	AddType(TypeHandler{
		Predicate: func(v any) bool { _, ok := v.(customPoint); return ok },
		Handle:    func(v any) (any, error) { return "first", nil },
	})
	AddType(TypeHandler{
		Predicate: func(v any) bool { _, ok := v.(customPoint); return ok },
		Handle:    func(v any) (any, error) { return "second", nil },
	})

	replacement, matched, err := dispatchCustomType(customPoint{})
	if err != nil {
		t.Fatal(err)
	}
	if !matched || replacement != "first" {
		t.Errorf("got %v, %v", replacement, matched)
	}
}
