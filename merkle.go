package amss

// The fractal Merkle tree: a tree of height h kept as a top subtree of
// height ht plus a rotating pair of bottom subtrees (exist, desire) of
// height hb = h - ht, so that only O(h + 2^hb) hash values are resident
// at any time instead of the O(2^h) a naive implementation would need.

// FractalMode selects how a tree's height is split between its top
// subtree and its bottom exist/desire pair, named after the ZERO and
// HALF fractal-height presets of the reference implementation.
type FractalMode uint8

const (
	// FractalFlat gives the top subtree height 0: the whole tree is one
	// bottom subtree, with no fractal memory savings. Useful for small
	// trees and for cross-checking against FractalHalf.
	FractalFlat FractalMode = iota
	// FractalHalf splits the tree evenly, top height = floor(h/2).
	FractalHalf
)

func splitHeight(h uint32, mode FractalMode) (ht, hb uint32) {
	if mode == FractalFlat {
		return 0, h
	}
	ht = h / 2
	return ht, h - ht
}

// MerkleConfig fixes the hash oracle and total height of a tree.
type MerkleConfig struct {
	Hash   HashConfig
	Height uint32
}

// Validate reports whether this configuration is realizable.
func (cfg MerkleConfig) Validate() error {
	if err := cfg.Hash.Validate(); err != nil {
		return err
	}
	if cfg.Height == 0 {
		return errConfigInvalid("Merkle tree height must be positive")
	}
	return nil
}

func (cfg MerkleConfig) combine(hashkey HashKey) func(l, r []byte) []byte {
	return func(l, r []byte) []byte {
		buf := make([]byte, 0, len(l)+len(r))
		buf = append(buf, l...)
		buf = append(buf, r...)
		return cfg.Hash.H(&hashkey, buf)
	}
}

// subtree is a single streaming binary tree of a given height, holding
// only one left node per level plus every right node ever seen, which
// is enough both to finish computing its own root and, later, to emit
// authentication paths for each of its leaves in signing order.
type subtree struct {
	height     uint32
	leftNodes  [][]byte // height entries
	rightNodes [][]byte // 2^height - 1 entries
	root       []byte
	leafIdx    uint64
	isFull     bool
}

func newSubtree(height uint32) *subtree {
	st := &subtree{height: height, leafIdx: 0}
	if height > 0 {
		st.leftNodes = make([][]byte, height)
		st.rightNodes = make([][]byte, (uint64(1)<<height)-1)
	}
	return st
}

func rightSlot(level uint32, localIdx uint64) uint64 {
	return (localIdx << level) - 1
}

// ingest adds the next leaf to the subtree, building internal nodes as
// runs of right children complete. It is a no-op once the subtree is
// full.
func (st *subtree) ingest(combine func(l, r []byte) []byte, leaf []byte) {
	if st.isFull {
		return
	}
	if st.height == 0 {
		st.root = append([]byte(nil), leaf...)
		st.isFull = true
		return
	}
	pos := st.leafIdx
	cur := append([]byte(nil), leaf...)
	for level := uint32(0); ; level++ {
		localIdx := pos >> level
		if localIdx&1 == 0 {
			st.leftNodes[level] = cur
			break
		}
		st.rightNodes[rightSlot(level, localIdx)] = append([]byte(nil), cur...)
		cur = combine(st.leftNodes[level], cur)
		if level+1 == st.height {
			break
		}
	}
	st.leafIdx++
	if st.leafIdx == uint64(1)<<st.height {
		st.root = cur
		st.isFull = true
		st.leafIdx = 0
	}
}

// authPath returns the height siblings authenticating leaf at position
// idx within this subtree, lazily repairing the left-node cache for the
// levels at which idx is a left child. Calling this repeatedly with a
// monotonically increasing idx (the order in which the subtree's leaves
// were themselves ingested) is what makes the cache valid; it must not
// be called out of order.
func (st *subtree) authPath(combine func(l, r []byte) []byte, leaf []byte, idx uint64) [][]byte {
	if st.height == 0 {
		return nil
	}
	path := make([][]byte, st.height)
	cur := append([]byte(nil), leaf...)
	for level := uint32(0); level < st.height; level++ {
		localIdx := idx >> level
		if localIdx&1 == 0 {
			sibling := st.rightNodes[rightSlot(level, localIdx+1)]
			path[level] = sibling
			st.leftNodes[level] = append([]byte(nil), cur...)
			cur = combine(cur, sibling)
		} else {
			sibling := st.leftNodes[level]
			path[level] = sibling
			cur = combine(sibling, cur)
		}
	}
	return path
}

// Path is an authentication path: height siblings ordered from the leaf
// upward, paired with the leaf index they authenticate.
type Path struct {
	LeafIdx uint64
	Nodes   [][]byte
}

// RootFromPath recomputes the tree root that leaf at leafIdx combined
// with path would produce, without needing any live Tree state. This is
// exactly what signature verification does.
func RootFromPath(cfg MerkleConfig, hashkey HashKey, leaf []byte, leafIdx uint64, path [][]byte) []byte {
	combine := cfg.combine(hashkey)
	cur := leaf
	for level, sib := range path {
		if (leafIdx>>uint(level))&1 == 0 {
			cur = combine(cur, sib)
		} else {
			cur = combine(sib, cur)
		}
	}
	return cur
}

// Tree is a fractal Merkle tree: signing walks through its leaves in
// strictly increasing order, authenticating each against the current
// bottom subtree (exist) and reusing the stable top-level path for every
// leaf of the current block, while desire is grown one leaf ahead so it
// is ready to take over exhausted.
type Tree struct {
	cfg    MerkleConfig
	mode   FractalMode
	ht, hb uint32

	top    *subtree
	exist  *subtree
	desire *subtree

	hashkey HashKey
	leafIdx uint64
	root    []byte
}

// Height returns the total tree height.
func (t *Tree) Height() uint32 { return t.cfg.Height }

// Root returns the tree's root once known (available as soon as KeyGen
// has run, not only once the tree is exhausted).
func (t *Tree) Root() []byte { return t.root }

// LeafIdx is the global index of the next leaf to be signed.
func (t *Tree) LeafIdx() uint64 { return t.leafIdx }

// IsFull reports whether every leaf has been consumed.
func (t *Tree) IsFull() bool { return t.leafIdx >= uint64(1)<<t.cfg.Height }

func (t *Tree) blockSize() uint64 { return uint64(1) << t.hb }

// Build constructs a tree of the given configuration and fractal mode by
// driving every one of its 2^Height leaves, supplied by leafAt, through
// the same growth machinery used during signing. It leaves the tree
// positioned to sign leaf 0: exist holds the first block (fully grown),
// desire is empty and ready to be grown during exist's block, and top
// (if ht>0) already knows every block root.
func Build(cfg MerkleConfig, mode FractalMode, hashkey HashKey, leafAt func(globalIdx uint64) []byte) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ht, hb := splitHeight(cfg.Height, mode)
	t := &Tree{cfg: cfg, mode: mode, ht: ht, hb: hb, hashkey: hashkey}
	combine := cfg.combine(hashkey)

	top := newSubtree(ht)
	blockSize := uint64(1) << hb
	numBlocks := uint64(1) << ht

	var firstBlock *subtree
	var g uint64
	for b := uint64(0); b < numBlocks; b++ {
		block := newSubtree(hb)
		for k := uint64(0); k < blockSize; k++ {
			block.ingest(combine, leafAt(g))
			g++
		}
		if ht > 0 {
			top.ingest(combine, block.root)
		}
		if b == 0 {
			firstBlock = block
		}
	}

	t.top = top
	t.exist = firstBlock
	t.desire = newSubtree(hb)
	if ht == 0 {
		t.root = firstBlock.root
	} else {
		t.root = top.root
	}
	t.leafIdx = 0
	return t, nil
}

// GetGrowLeafIdx returns the global leaf index at which the next desire
// growth step should occur, or 0 if no growth is required this
// signature (either because ht=0, the single-subtree configuration,
// because desire has already been fully grown for this cycle, or
// because the current block is the last one). The index is counted from
// LeafIdx(), the leaf about to be signed, so it applies to the Sign call
// that follows it.
func (t *Tree) GetGrowLeafIdx() uint64 {
	if t.ht == 0 || t.desire.isFull {
		return 0
	}
	blockSize := t.blockSize()
	nextBlockStart := (t.leafIdx/blockSize + 1) * blockSize
	if nextBlockStart >= uint64(1)<<t.cfg.Height {
		return 0
	}
	return nextBlockStart + t.desire.leafIdx
}

// GrowDesire ingests one more leaf into desire. leaf must be the WOTS
// public root for global index GetGrowLeafIdx(); the caller is
// responsible for computing it.
func (t *Tree) GrowDesire(leaf []byte) {
	combine := t.cfg.combine(t.hashkey)
	t.desire.ingest(combine, leaf)
	if t.desire.isFull {
		log.Logf("desire subtree fully grown (%d leaves)", t.blockSize())
	} else {
		log.Logf("desire subtree grown to leaf %d/%d", t.desire.leafIdx, t.blockSize())
	}
}

// Sign returns the authentication path for the leaf currently at
// t.LeafIdx(), given its (already computed) leaf hash, and advances the
// tree's position. It reports whether the current block was just
// exhausted; the caller must finish growing desire (if it hasn't
// already) and then call CompleteBlock before the next Sign call.
func (t *Tree) Sign(leafHash []byte) (path Path, blockDone bool, err error) {
	if t.leafIdx >= uint64(1)<<t.cfg.Height {
		return Path{}, false, errExhausted(t.leafIdx, t.cfg.Height)
	}
	combine := t.cfg.combine(t.hashkey)
	i := t.leafIdx
	p := t.exist.leafIdx

	lower := t.exist.authPath(combine, leafHash, p)
	t.exist.leafIdx = p + 1

	var upper [][]byte
	if t.ht > 0 {
		// top was fully, eagerly ingested during Build (every block root is
		// already known), so top.leafIdx sits permanently at 0 once it
		// reports full; the path position within top is the leaf's block
		// index, not that stale counter.
		blockIdx := i >> t.hb
		upper = t.top.authPath(combine, t.exist.root, blockIdx)
	}

	blockDone = t.exist.leafIdx == t.blockSize()
	if blockDone {
		t.exist.leafIdx = 0
	}

	nodes := make([][]byte, 0, len(lower)+len(upper))
	nodes = append(nodes, lower...)
	nodes = append(nodes, upper...)

	t.leafIdx = i + 1

	return Path{LeafIdx: i, Nodes: nodes}, blockDone, nil
}

// CompleteBlock rotates desire into exist's place. top needs no update
// here: every block root was already ingested into it during Build, so
// it has authenticated every block index since key generation.
func (t *Tree) CompleteBlock() {
	if t.ht == 0 {
		return
	}
	log.Logf("block complete: rotating desire into exist")
	t.exist, t.desire = t.desire, newSubtree(t.hb)
}

// currentLeafPosition returns the within-block position of the leaf
// about to be signed, used by AMSS to decide whether it can recover the
// leaf hash from the right-node cache instead of recomputing it.
func (t *Tree) currentLeafPosition() uint64 { return t.exist.leafIdx }

// rightCachedLeaf returns the raw leaf hash permanently cached for an
// odd within-block position, or nil if p is even (no such cache exists).
func (t *Tree) rightCachedLeaf(p uint64) []byte {
	if p%2 == 0 {
		return nil
	}
	return t.exist.rightNodes[rightSlot(0, p)]
}
