package amss

import (
	"bytes"
	"testing"
)

func testConfig(t *testing.T, height uint32, mode FractalMode) Config {
	hc, err := NewHashConfig(SHA2, 32)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Hash: hc, W: 16, Height: height, Mode: mode}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate(): %s", err)
	}
	return cfg
}

func fixedSeed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b + byte(i)
	}
	return s
}

func fixedHashKey(b byte) HashKey {
	var material [16]byte
	for i := range material {
		material[i] = b + byte(2*i)
	}
	return NewHashKey(material)
}

func testAMSSSignThenVerifyEveryLeaf(t *testing.T, height uint32, mode FractalMode) {
	cfg := testConfig(t, height, mode)
	a, err := NewKeyPair(cfg, fixedSeed(1), fixedHashKey(7))
	if err != nil {
		t.Fatalf("NewKeyPair: %s", err)
	}
	pub := a.PubKey()

	numLeaves := uint64(1) << height
	for i := uint64(0); i < numLeaves; i++ {
		digest := make([]byte, cfg.Hash.N())
		digest[0] = byte(i)
		digest[1] = byte(i >> 8)

		sig, err := a.Sign(digest)
		if err != nil {
			t.Fatalf("Sign(%d): %s", i, err)
		}
		if sig.LeafIdx != i {
			t.Errorf("leaf %d: Sign reported LeafIdx=%d", i, sig.LeafIdx)
		}
		ok, err := Verify(pub, digest, sig)
		if err != nil {
			t.Fatalf("Verify(%d): %s", i, err)
		}
		if !ok {
			t.Errorf("height=%d mode=%v leaf=%d: signature failed to verify", height, mode, i)
		}

		tampered := append([]byte(nil), digest...)
		tampered[len(tampered)-1] ^= 1
		ok, err = Verify(pub, tampered, sig)
		if err != nil {
			t.Fatalf("Verify(tampered, %d): %s", i, err)
		}
		if ok {
			t.Errorf("height=%d mode=%v leaf=%d: tampered digest verified", height, mode, i)
		}
	}
	if !a.Exhausted() {
		t.Errorf("tree should be exhausted after signing every leaf")
	}
	if _, err := a.Sign(make([]byte, cfg.Hash.N())); err == nil {
		t.Errorf("Sign after exhaustion should fail")
	}
}

func TestAMSSSignThenVerifyEveryLeaf(t *testing.T) {
	for _, h := range []uint32{1, 2, 3, 4} {
		testAMSSSignThenVerifyEveryLeaf(t, h, FractalFlat)
		testAMSSSignThenVerifyEveryLeaf(t, h, FractalHalf)
	}
}

func TestAMSSForwardSecretAdvancesEverySignature(t *testing.T) {
	cfg := testConfig(t, 3, FractalHalf)
	a, err := NewKeyPair(cfg, fixedSeed(3), fixedHashKey(9))
	if err != nil {
		t.Fatal(err)
	}
	seeds := make([][32]byte, 0, 8)
	seeds = append(seeds, a.secret)
	digest := make([]byte, cfg.Hash.N())
	for i := 0; i < 4; i++ {
		if _, err := a.Sign(digest); err != nil {
			t.Fatalf("Sign: %s", err)
		}
		seeds = append(seeds, a.secret)
	}
	for i := 1; i < len(seeds); i++ {
		if bytes.Equal(seeds[i-1][:], seeds[i][:]) {
			t.Errorf("secret state did not change across Sign call %d", i)
		}
	}
}

func TestAMSSPubKeyStableAcrossSigning(t *testing.T) {
	cfg := testConfig(t, 2, FractalFlat)
	a, err := NewKeyPair(cfg, fixedSeed(5), fixedHashKey(11))
	if err != nil {
		t.Fatal(err)
	}
	root := append([]byte(nil), a.PubKey().Root...)
	digest := make([]byte, cfg.Hash.N())
	for i := 0; i < 3; i++ {
		digest[0] = byte(i)
		if _, err := a.Sign(digest); err != nil {
			t.Fatalf("Sign: %s", err)
		}
	}
	if !bytes.Equal(root, a.PubKey().Root) {
		t.Errorf("public root changed after signing")
	}
}

func TestAMSSWireRoundTrip(t *testing.T) {
	cfg := testConfig(t, 3, FractalHalf)
	a, err := NewKeyPair(cfg, fixedSeed(2), fixedHashKey(4))
	if err != nil {
		t.Fatal(err)
	}
	pub := a.PubKey()
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		t.Fatalf("PubKey.MarshalBinary: %s", err)
	}
	var pub2 PubKey
	if err := pub2.UnmarshalBinary(pubBytes); err != nil {
		t.Fatalf("PubKey.UnmarshalBinary: %s", err)
	}
	if !bytes.Equal(pub.Root, pub2.Root) || pub.HashKey != pub2.HashKey {
		t.Errorf("PubKey did not round-trip through the wire format")
	}

	digest := make([]byte, cfg.Hash.N())
	sig, err := a.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}
	sigBytes, err := sig.MarshalBinary(cfg)
	if err != nil {
		t.Fatalf("Signature.MarshalBinary: %s", err)
	}
	var sig2 Signature
	if err := sig2.UnmarshalBinary(cfg, sigBytes); err != nil {
		t.Fatalf("Signature.UnmarshalBinary: %s", err)
	}
	ok, err := Verify(pub2, digest, &sig2)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("signature did not verify after a wire round trip")
	}
}

func TestAMSSRejectsInvalidConfig(t *testing.T) {
	hc, _ := NewHashConfig(SHA2, 32)
	cfg := Config{Hash: hc, W: 3, Height: 4, Mode: FractalHalf}
	if _, err := GenerateKeyPair(cfg); err == nil {
		t.Errorf("expected GenerateKeyPair to reject an invalid W")
	}
}
