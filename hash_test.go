package amss

import (
	"bytes"
	"testing"
)

func TestHashConfigValidate(t *testing.T) {
	cases := []struct {
		algo HashAlgo
		size uint32
		ok   bool
	}{
		{SHA2, 32, true},
		{SHA2, 33, false},
		{SHA2, 0, false},
		{SHA3, 32, true},
		{SHAKE128, 16, true},
		{SHAKE256, 64, true},
		{SHAKE256, 0, false},
		{BLAKE2b, 32, true},
		{BLAKE2b, 17, false},
	}
	for _, c := range cases {
		_, err := NewHashConfig(c.algo, c.size)
		if (err == nil) != c.ok {
			t.Errorf("NewHashConfig(%s, %d): err=%v, want ok=%v", c.algo, c.size, err, c.ok)
		}
	}
}

func TestHashIsDeterministic(t *testing.T) {
	hc, err := NewHashConfig(SHA2, 32)
	if err != nil {
		t.Fatal(err)
	}
	var key HashKey
	key.SetChainTag(3)
	a := hc.H(&key, []byte("hello"))
	b := hc.H(&key, []byte("hello"))
	if !bytes.Equal(a, b) {
		t.Errorf("H is not deterministic for identical inputs")
	}
}

func TestHashKeyChangesOutput(t *testing.T) {
	hc, err := NewHashConfig(SHA3, 32)
	if err != nil {
		t.Fatal(err)
	}
	var k1, k2 HashKey
	k1.SetChainTag(1)
	k2.SetChainTag(2)
	a := hc.H(&k1, []byte("same input"))
	b := hc.H(&k2, []byte("same input"))
	if bytes.Equal(a, b) {
		t.Errorf("different hashkeys produced the same output")
	}
}

func TestHashAllAlgosProduceRequestedLength(t *testing.T) {
	algos := []struct {
		algo HashAlgo
		size uint32
	}{
		{SHA2, 32}, {SHA3, 32}, {SHAKE128, 24}, {SHAKE256, 48}, {BLAKE2b, 64},
	}
	var key HashKey
	for _, a := range algos {
		hc, err := NewHashConfig(a.algo, a.size)
		if err != nil {
			t.Fatalf("%s: %s", a.algo, err)
		}
		out := hc.H(&key, []byte("probe"))
		if uint32(len(out)) != a.size {
			t.Errorf("%s: got %d bytes, want %d", a.algo, len(out), a.size)
		}
	}
}

func TestHashCallCount(t *testing.T) {
	hc, err := NewHashConfig(SHA2, 32)
	if err != nil {
		t.Fatal(err)
	}
	hc.ResetStats()
	var key HashKey
	for i := 0; i < 5; i++ {
		hc.H(&key, []byte("x"))
	}
	if got := hc.CallCount(); got != 5 {
		t.Errorf("CallCount() = %d, want 5", got)
	}
	hc.ResetStats()
	if got := hc.CallCount(); got != 0 {
		t.Errorf("CallCount() after reset = %d, want 0", got)
	}
}

func TestFingerprintIsStableAndShort(t *testing.T) {
	a := Fingerprint([]byte("consistent input"))
	b := Fingerprint([]byte("consistent input"))
	if a != b {
		t.Errorf("Fingerprint is not deterministic")
	}
	if len(a) != 16 {
		t.Errorf("Fingerprint length = %d, want 16 hex characters", len(a))
	}
	if Fingerprint([]byte("other input")) == a {
		t.Errorf("Fingerprint collided on two different inputs (suspiciously)")
	}
}
