package core

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestNormalizeValue_Scalars(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{nil, nil},
		{true, true},
		{"hello", "hello"},
		{int(7), int64(7)},
		{int8(-3), int64(-3)},
		{int16(300), int64(300)},
		{int32(70000), int64(70000)},
		{int64(1 << 40), int64(1 << 40)},
		{uint(9), int64(9)},
		{uint8(255), int64(255)},
		{uint16(65535), int64(65535)},
		{uint32(1 << 20), int64(1 << 20)},
		{uint64(42), int64(42)},
		{float32(1.5), float64(1.5)},
		{float64(2.75), float64(2.75)},
	}

	for _, c := range cases {
		got, err := NormalizeValue(c.in)
		if err != nil {
			t.Fatalf("normalize %v (%T): %v", c.in, c.in, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("normalize %v (%T): got %v (%T), want %v (%T)", c.in, c.in, got, got, c.want, c.want)
		}
	}
}

func TestNormalizeValue_Uint64Overflow(t *testing.T) {
	if _, err := NormalizeValue(uint64(math.MaxInt64) + 1); !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
}

func TestNormalizeValue_Composites(t *testing.T) {
	got, err := NormalizeValue([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Fatalf("slice: got %#v", got)
	}

	got, err = NormalizeValue(map[string]int{"n": 3})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, map[string]any{"n": int64(3)}) {
		t.Fatalf("map: got %#v", got)
	}

	got, err = NormalizeValue(map[string]any{
		"scores": []int{90, 85},
		"meta":   map[string]string{"kind": "quiz"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"scores": []any{int64(90), int64(85)},
		"meta":   map[string]any{"kind": "quiz"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("nested: got %#v, want %#v", got, want)
	}
}

func TestNormalizeValue_Pointers(t *testing.T) {
	n := 5
	got, err := NormalizeValue(&n)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(5) {
		t.Fatalf("pointer deref: got %v (%T)", got, got)
	}

	var nilPtr *int
	got, err = NormalizeValue(nilPtr)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("nil pointer: got %v", got)
	}
}

func TestNormalizeValue_Unsupported(t *testing.T) {
	type box struct{ N int }

	for _, in := range []any{
		box{N: 1},
		make(chan int),
		func() {},
		map[int]string{1: "x"},
		complex(1, 2),
	} {
		if _, err := NormalizeValue(in); !errors.Is(err, ErrUnsupportedValue) {
			t.Fatalf("normalize %T: expected ErrUnsupportedValue, got %v", in, err)
		}
	}
}

func TestNormalizeValue_NoAliasing(t *testing.T) {
	src := map[string]any{"items": []any{"a"}}
	got, err := NormalizeValue(src)
	if err != nil {
		t.Fatal(err)
	}
	src["items"].([]any)[0] = "mutated"
	src["extra"] = true

	norm := got.(map[string]any)
	if _, ok := norm["extra"]; ok {
		t.Fatal("normalized map aliases the input map")
	}
	if norm["items"].([]any)[0] != "a" {
		t.Fatal("normalized slice aliases the input slice")
	}
}

func TestCopyValue_DeepCopy(t *testing.T) {
	src := map[string]any{
		"list": []any{int64(1), map[string]any{"k": "v"}},
	}
	dup := CopyValue(src).(map[string]any)

	src["list"].([]any)[0] = int64(99)
	src["list"].([]any)[1].(map[string]any)["k"] = "mutated"

	list := dup["list"].([]any)
	if list[0] != int64(1) {
		t.Fatal("copied slice aliases the source")
	}
	if list[1].(map[string]any)["k"] != "v" {
		t.Fatal("copied nested map aliases the source")
	}
}

func TestCopyValue_Scalars(t *testing.T) {
	if CopyValue(nil) != nil {
		t.Fatal("nil should copy to nil")
	}
	if CopyValue("s") != "s" {
		t.Fatal("string should copy as-is")
	}
	if CopyValue(int64(4)) != int64(4) {
		t.Fatal("int64 should copy as-is")
	}
}
