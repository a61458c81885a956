package core

import (
	"errors"
	"testing"
)

func TestResolveKey_PrefixGrammar(t *testing.T) {
	cases := []struct {
		raw   string
		scope Scope
		bare  string
	}{
		{"temp:score", ScopeTemp, "score"},
		{"user:language", ScopeUser, "language"},
		{"app:config", ScopeApp, "config"},
		{"topic", ScopeSession, "topic"},
		{"user:a:b", ScopeUser, "a:b"},
		{"temp:user:x", ScopeTemp, "user:x"},
		{"temperature", ScopeSession, "temperature"},
		{"users:1", ScopeSession, "users:1"},
		{"Temp:score", ScopeSession, "Temp:score"},
		{"session:x", ScopeSession, "session:x"},
		{" user:x", ScopeSession, " user:x"},
	}

	for _, c := range cases {
		key, err := ResolveKey(c.raw)
		if err != nil {
			t.Fatalf("resolve %q: %v", c.raw, err)
		}
		if key.Scope != c.scope || key.Key != c.bare {
			t.Fatalf("resolve %q: got (%s, %q), want (%s, %q)", c.raw, key.Scope, key.Key, c.scope, c.bare)
		}
	}
}

func TestResolveKey_EmptyBareKey(t *testing.T) {
	for _, raw := range []string{"", "temp:", "user:", "app:"} {
		if _, err := ResolveKey(raw); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("resolve %q: expected ErrInvalidKey, got %v", raw, err)
		}
	}
}

func TestResolveKey_Pure(t *testing.T) {
	first, err := ResolveKey("user:quiz_scores")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ResolveKey("user:quiz_scores")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestScopedKey_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{"temp:x", "user:language", "app:config", "plain", "user:a:b"} {
		key, err := ResolveKey(raw)
		if err != nil {
			t.Fatal(err)
		}
		if key.String() != raw {
			t.Fatalf("round trip %q: got %q", raw, key.String())
		}
		again, err := ResolveKey(key.String())
		if err != nil {
			t.Fatal(err)
		}
		if again != key {
			t.Fatalf("re-resolve %q: got %+v, want %+v", raw, again, key)
		}
	}
}

func TestScope_Persistent(t *testing.T) {
	if ScopeTemp.Persistent() {
		t.Error("temp scope should not be persistent")
	}
	for _, s := range []Scope{ScopeSession, ScopeUser, ScopeApp} {
		if !s.Persistent() {
			t.Errorf("%s scope should be persistent", s)
		}
	}
}
