package amss

import (
	"bytes"
	"testing"
)

func leafSequence(n int) func(uint64) []byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte{byte(i), byte(i >> 8), 0xAA}
	}
	return func(idx uint64) []byte { return leaves[idx] }
}

func testMerkleBuildAndVerifyAll(t *testing.T, height uint32, mode FractalMode) {
	hc, err := NewHashConfig(SHA2, 32)
	if err != nil {
		t.Fatal(err)
	}
	cfg := MerkleConfig{Hash: hc, Height: height}
	var hkMaterial [16]byte
	hashkey := NewHashKey(hkMaterial)

	numLeaves := uint64(1) << height
	leafAt := leafSequence(int(numLeaves))
	leafHash := func(idx uint64) []byte { return hc.H(&hashkey, leafAt(idx)) }

	tree, err := Build(cfg, mode, hashkey, leafHash)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	root := tree.Root()

	for i := uint64(0); i < numLeaves; i++ {
		if tree.GetGrowLeafIdx() != 0 {
			growIdx := tree.GetGrowLeafIdx()
			tree.GrowDesire(leafHash(growIdx))
		}
		path, blockDone, err := tree.Sign(leafHash(i))
		if err != nil {
			t.Fatalf("Sign(%d): %s", i, err)
		}
		got := RootFromPath(cfg, hashkey, leafHash(i), path.LeafIdx, path.Nodes)
		if !bytes.Equal(got, root) {
			t.Errorf("height=%d mode=%v leaf=%d: recomputed root mismatch", height, mode, i)
		}
		if blockDone {
			tree.CompleteBlock()
		}
	}
}

func TestMerkleBuildAndVerifyAll(t *testing.T) {
	for _, h := range []uint32{1, 2, 3, 4, 6} {
		testMerkleBuildAndVerifyAll(t, h, FractalFlat)
		testMerkleBuildAndVerifyAll(t, h, FractalHalf)
	}
}

func TestMerkleSignRejectsPastExhaustion(t *testing.T) {
	hc, _ := NewHashConfig(SHA2, 32)
	cfg := MerkleConfig{Hash: hc, Height: 1}
	var hkMaterial [16]byte
	hashkey := NewHashKey(hkMaterial)
	leafAt := leafSequence(2)
	leafHash := func(idx uint64) []byte { return hc.H(&hashkey, leafAt(idx)) }

	tree, err := Build(cfg, FractalFlat, hashkey, leafHash)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := tree.Sign(leafHash(uint64(i))); err != nil {
			t.Fatalf("Sign(%d): %s", i, err)
		}
	}
	if _, _, err := tree.Sign(leafHash(0)); err == nil {
		t.Errorf("Sign past exhaustion should fail")
	}
}

func TestMerkleConfigValidateRejectsZeroHeight(t *testing.T) {
	hc, _ := NewHashConfig(SHA2, 32)
	cfg := MerkleConfig{Hash: hc, Height: 0}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for zero height")
	}
}
