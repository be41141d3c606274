package amss

// The AMSS composer: binds a forward-secure seed chain to one WOTS
// leaf per Merkle leaf slot. Signing evolves the seed, signs with the
// current WOTS leaf, authenticates that leaf against the Merkle tree,
// and grows the tree's desire subtree one step ahead so the next block
// is ready by the time this one is exhausted.

import "crypto/rand"

// Config fixes the hash oracle, WOTS chain base and tree height of an
// AMSS keypair. All three share the same HashConfig, so n is consistent
// throughout.
type Config struct {
	Hash   HashConfig
	W      uint16
	Height uint32
	Mode   FractalMode
}

// Validate aggregates every configuration error this Config might
// produce, rather than stopping at the first one.
func (cfg Config) Validate() error {
	var errs []error
	wc := cfg.wots()
	if err := wc.Validate(); err != nil {
		errs = append(errs, err)
	}
	mc := cfg.merkle()
	if err := mc.Validate(); err != nil {
		errs = append(errs, err)
	}
	return joinConfigErrors(errs)
}

func (cfg Config) wots() WotsConfig {
	return WotsConfig{Hash: cfg.Hash, W: cfg.W}
}

func (cfg Config) merkle() MerkleConfig {
	return MerkleConfig{Hash: cfg.Hash, Height: cfg.Height}
}

// PubKey is the public half of an AMSS keypair: enough to verify any
// signature produced by the matching private state.
type PubKey struct {
	Cfg     Config
	HashKey HashKey
	Root    []byte
}

// Signature is one AMSS signature: the leaf it was produced from, the
// WOTS signature of that leaf, and its Merkle authentication path.
type Signature struct {
	LeafIdx uint64
	Wots    []byte
	Path    [][]byte
}

// AMSS is a private signing state. It is not safe for concurrent use:
// Sign is destructive and must not be reentered.
type AMSS struct {
	cfg      Config
	hashkey  HashKey
	secret   [32]byte
	leafIdx  uint64
	tree     *Tree
	scratch  *WotsState
	pub      PubKey
}

// GenerateKeyPair creates a new AMSS state from fresh random seed and
// hashkey material, building the full Merkle tree eagerly (an
// unavoidable O(2^Height) one-time cost) and leaving the state
// positioned to sign leaf 0.
func GenerateKeyPair(cfg Config) (*AMSS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var seed [32]byte
	var hkMaterial [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, errAllocationFailed(err, "reading random seed")
	}
	if _, err := rand.Read(hkMaterial[:]); err != nil {
		return nil, errAllocationFailed(err, "reading random hashkey")
	}
	log.Logf("generating fresh keypair: height=%d w=%d mode=%v", cfg.Height, cfg.W, cfg.Mode)
	return NewKeyPair(cfg, seed, NewHashKey(hkMaterial))
}

// NewKeyPair builds an AMSS state from caller-supplied seed and
// hashkey material, e.g. to recreate a key deterministically in tests.
func NewKeyPair(cfg Config, seed [32]byte, hashkey HashKey) (*AMSS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Logf("building fractal Merkle tree: %d leaves", uint64(1)<<cfg.Height)
	wc := cfg.wots()
	a := &AMSS{
		cfg:     cfg,
		hashkey: hashkey,
		secret:  seed,
		scratch: NewWotsState(wc),
	}

	running := seed
	leafAt := func(globalIdx uint64) []byte {
		root := wc.publicRoot(running, hashkey)
		running = evolve(cfg.Hash, hashkey, running)
		return root
	}
	tree, err := Build(cfg.merkle(), cfg.Mode, hashkey, leafAt)
	if err != nil {
		return nil, err
	}
	a.tree = tree
	a.pub = PubKey{Cfg: cfg, HashKey: hashkey, Root: tree.Root()}
	a.leafIdx = 0
	log.Logf("key generation complete: root=%s", Fingerprint(tree.Root()))
	return a, nil
}

// evolve is the one-way secret-state advance: H(hashkey, secret),
// applied after every use so past seeds are unrecoverable from the
// current one.
func evolve(hc HashConfig, hashkey HashKey, seed [32]byte) [32]byte {
	var next [32]byte
	copy(next[:], hc.H(&hashkey, seed[:]))
	return next
}

// advance applies n rounds of evolve to a copy of seed, used to jump a
// scratch seed ahead to the slot desire's next leaf needs without
// touching the real secret.
func advance(hc HashConfig, hashkey HashKey, seed [32]byte, n uint64) [32]byte {
	for i := uint64(0); i < n; i++ {
		seed = evolve(hc, hashkey, seed)
	}
	return seed
}

// PubKey returns this state's public key.
func (a *AMSS) PubKey() PubKey { return a.pub }

// LeafIdx returns the index of the next leaf that will be signed.
func (a *AMSS) LeafIdx() uint64 { return a.leafIdx }

// Exhausted reports whether every one-time key has been used.
func (a *AMSS) Exhausted() bool { return a.leafIdx >= uint64(1)<<a.cfg.Height }

// Sign produces a signature of digest (which must be cfg.Hash.Size
// bytes) and advances the state, making the leaf just used permanently
// unusable again. Sign is not reentrant.
func (a *AMSS) Sign(digest []byte) (*Signature, error) {
	if a.Exhausted() {
		return nil, errExhausted(a.leafIdx, a.cfg.Height)
	}
	i := a.leafIdx
	log.Logf("signing leaf %d/%d with digest %s", i, uint64(1)<<a.cfg.Height, Fingerprint(digest))
	p := a.tree.currentLeafPosition()

	a.scratch.ImportSeckey(a.secret, a.hashkey)
	wotsSig, err := a.scratch.Sign(digest)
	if err != nil {
		return nil, err
	}

	// Evolve the real secret immediately: from here on only the scratch
	// copies above hold the pre-evolution seed.
	a.secret = evolve(a.cfg.Hash, a.hashkey, a.secret)

	// Derive the leaf hash being authenticated. The odd-position case is
	// always safe to read from the tree's permanent right-node cache;
	// the even-position case is always recomputed from the signature
	// rather than trusted from a cache, since the cache's freshness for
	// that case depends on exist/desire timing this implementation does
	// not assume (see the design notes on elision).
	var leafHash []byte
	if cached := a.tree.rightCachedLeaf(p); cached != nil {
		leafHash = cached
	} else {
		leafHash = a.scratch.RootFromSig(digest, wotsSig)
	}

	// The growth target is read before tree.Sign advances the tree's
	// position, since GetGrowLeafIdx counts from the leaf being signed.
	target := a.tree.GetGrowLeafIdx()

	path, blockDone, err := a.tree.Sign(leafHash)
	if err != nil {
		return nil, err
	}

	if target != 0 {
		steps := target - (i + 1)
		growSeed := advance(a.cfg.Hash, a.hashkey, a.secret, steps)
		a.scratch.ImportSeckey(growSeed, a.hashkey)
		if err := a.scratch.GeneratePubkey(); err != nil {
			return nil, err
		}
		a.tree.GrowDesire(a.scratch.Root())
	}

	if blockDone {
		a.tree.CompleteBlock()
	}

	a.leafIdx = i + 1
	return &Signature{LeafIdx: i, Wots: wotsSig, Path: path.Nodes}, nil
}

// Verify reports whether sig is a valid signature of digest under pub.
func Verify(pub PubKey, digest []byte, sig *Signature) (bool, error) {
	if err := pub.Cfg.Validate(); err != nil {
		return false, err
	}
	wc := pub.Cfg.wots()
	leafHash := wc.rootFromSignature(sig.Wots, pub.HashKey, digest)
	root := RootFromPath(pub.Cfg.merkle(), pub.HashKey, leafHash, sig.LeafIdx, sig.Path)
	return constantTimeEqual(root, pub.Root), nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
