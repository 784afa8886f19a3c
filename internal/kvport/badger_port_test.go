package kvport

import "testing"

func TestBadgerPort_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBadgerPort(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	if _, ok := b.Get("missing"); ok {
		t.Fatalf("missing key should not be found")
	}
	if err := b.Set("accounts_meta", `{"u1":{"role":"Farmer"}}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok := b.Get("accounts_meta")
	if !ok || v != `{"u1":{"role":"Farmer"}}` {
		t.Fatalf("want stored payload, got (%q,%v)", v, ok)
	}

	b.Remove("accounts_meta")
	if _, ok := b.Get("accounts_meta"); ok {
		t.Fatalf("removed key should not be found")
	}
}

func TestBadgerPort_Keys(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBadgerPort(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	want := map[string]bool{"k1": true, "k2": true, "k3": true}
	for k := range want {
		if err := b.Set(k, "v"); err != nil {
			t.Fatalf("set %q: %v", k, err)
		}
	}
	ks := b.Keys()
	if len(ks) != len(want) {
		t.Fatalf("want %d keys, got %v", len(want), ks)
	}
	for _, k := range ks {
		if !want[k] {
			t.Fatalf("unexpected key %q", k)
		}
	}
}
