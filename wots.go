package amss

// The WOTS one-time-signature engine.  Unlike the WOTS+ construction of
// RFC 8391, chain tips are folded into the leaf's root with a single
// keyed hash rather than an L-tree, and the checksum digits are encoded
// in a base that need not be a power of two.

import (
	"crypto/subtle"

	"github.com/templexxx/xor"
)

// WotsConfig fixes the chain base (code_base) and, through Hash, the
// output width n of one WOTS instance.
type WotsConfig struct {
	Hash HashConfig
	W    uint16 // code_base
}

// csumBase tabulates the checksum base for each supported (n, w) pair,
// derived from ceil(sqrt(8n/log2(w) * (w-1))) and tightened by hand to
// the smallest value under which the two-digit checksum cannot overflow.
var csumBase = map[[2]uint32]uint32{
	{16, 4}:   14,
	{16, 16}:  22,
	{16, 256}: 64,
	{20, 4}:   16,
	{20, 16}:  25,
	{20, 32}:  32,
	{20, 256}: 72,
	{32, 4}:   20,
	{32, 16}:  31,
	{32, 256}: 91,
}

func log2w(w uint16) uint8 {
	switch w {
	case 4:
		return 2
	case 16:
		return 4
	case 32:
		return 5
	case 256:
		return 8
	default:
		return 0
	}
}

// Validate reports whether this (n, w) combination is one of the
// supported pairs and that the resulting chain count fits the
// hashkey-byte-0 sentinel constraint (NumChains <= 255).
func (cfg WotsConfig) Validate() error {
	if err := cfg.Hash.Validate(); err != nil {
		return err
	}
	lw := log2w(cfg.W)
	if lw == 0 {
		return errConfigInvalid("code_base w must be one of {4,16,32,256}")
	}
	if _, ok := csumBase[[2]uint32{cfg.Hash.Size, uint32(cfg.W)}]; !ok {
		return errConfigInvalid("unsupported (n,w) combination for WOTS")
	}
	if cfg.NumChains() > 255 {
		return errConfigInvalid("chain count exceeds 255: would collide with the seed-expansion reset tag")
	}
	return nil
}

// CodeDigits is the number of chains spent encoding the message digest
// itself, before the checksum digits.
func (cfg WotsConfig) CodeDigits() int {
	n := int(cfg.Hash.Size)
	lw := int(log2w(cfg.W))
	return (8*n + lw - 1) / lw
}

// ChecksumDigits is always 2: two digits in base csumBase(n,w) are
// sufficient to hold the maximum possible checksum value for every
// supported (n,w) pair.
func (cfg WotsConfig) ChecksumDigits() int { return 2 }

// NumChains is the total number of WOTS chains: CodeDigits plus the two
// checksum digits.
func (cfg WotsConfig) NumChains() int {
	return cfg.CodeDigits() + cfg.ChecksumDigits()
}

func (cfg WotsConfig) csumBase() uint32 {
	return csumBase[[2]uint32{cfg.Hash.Size, uint32(cfg.W)}]
}

// chainBase returns the base of chain i: w for the code digits, the
// checksum base for the two trailing checksum digits.
func (cfg WotsConfig) chainBase(i int) uint16 {
	if i < cfg.CodeDigits() {
		return cfg.W
	}
	return uint16(cfg.csumBase())
}

// baseWDigits interprets input as a big-endian base-w numeral and
// returns its numDigits most significant digits, reading bits across
// byte boundaries.  Unlike a byte-aligned extraction, this also works
// when log2(w) does not divide 8 (e.g. w=32).
func baseWDigits(input []byte, logW uint8, numDigits int) []uint8 {
	out := make([]uint8, numDigits)
	var acc uint64
	var accBits uint
	pos := 0
	mask := uint64(1)<<logW - 1
	for i := 0; i < numDigits; i++ {
		for accBits < uint(logW) {
			acc = (acc << 8) | uint64(input[pos])
			pos++
			accBits += 8
		}
		accBits -= uint(logW)
		out[i] = uint8((acc >> accBits) & mask)
	}
	return out
}

// baseDigits writes x as exactly numDigits big-endian digits in base b.
func baseDigits(x uint32, b uint32, numDigits int) []uint8 {
	out := make([]uint8, numDigits)
	for i := numDigits - 1; i >= 0; i-- {
		out[i] = uint8(x % b)
		x /= b
	}
	return out
}

// encode converts a message digest (cfg.Hash.Size bytes) into the full
// set of per-chain digits: CodeDigits digits in base w, followed by
// ChecksumDigits digits in base csumBase.
func (cfg WotsConfig) encode(digest []byte) []uint8 {
	codeDigits := cfg.CodeDigits()
	digits := baseWDigits(digest, log2w(cfg.W), codeDigits)

	var csum uint32
	for _, d := range digits {
		csum += uint32(cfg.W) - 1 - uint32(d)
	}
	digits = append(digits, baseDigits(csum, cfg.csumBase(), cfg.ChecksumDigits())...)
	return digits
}

// expandSeed derives the NumChains chain-head values from a 32-byte
// seed.  Heads are produced by a short sequential recurrence under a
// single hashkey whose byte 0 carries the reset tag: c_0 = H(K,seed),
// c_{i} = H(K, c_{i-1} XOR seed) for i>=1.  XORing the running value
// with the seed (rather than hashing the seed alone each time) makes
// the heads depend on both the chain position and the seed while only
// ever hashing n bytes.  Only the first n bytes of the seed are used, so
// for n < 32 the remaining seed bytes do not affect the heads.
func (cfg WotsConfig) expandSeed(seed [32]byte, hashkey HashKey) [][]byte {
	n := int(cfg.Hash.Size)
	k := hashkey
	k.SetResetTag()

	heads := make([][]byte, cfg.NumChains())
	cur := cfg.Hash.H(&k, seed[:n])
	heads[0] = cur
	preimage := make([]byte, n)
	for i := 1; i < len(heads); i++ {
		xor.BytesSameLen(preimage, cur, seed[:n])
		cur = cfg.Hash.H(&k, preimage)
		heads[i] = cur
	}
	return heads
}

// genChain advances value, which sits at position from on chain
// chainIdx, by steps hash applications and returns the resulting value.
func (cfg WotsConfig) genChain(value []byte, chainIdx int, from, steps uint16, hashkey HashKey) []byte {
	k := hashkey
	k.SetChainTag(uint8(chainIdx))
	cur := value
	for pos := from; pos < from+steps; pos++ {
		k.SetHashTag(uint8(pos))
		cur = cfg.Hash.H(&k, cur)
	}
	return cur
}

// combineChainTips folds the NumChains final chain values into a single
// root under hashkey.
func (cfg WotsConfig) combineChainTips(tips [][]byte, hashkey HashKey) []byte {
	buf := make([]byte, 0, len(tips)*int(cfg.Hash.Size))
	for _, t := range tips {
		buf = append(buf, t...)
	}
	return cfg.Hash.H(&hashkey, buf)
}

// publicRoot computes the WOTS public root directly from a seed: every
// chain is walked all the way to its tip.
func (cfg WotsConfig) publicRoot(seed [32]byte, hashkey HashKey) []byte {
	heads := cfg.expandSeed(seed, hashkey)
	tips := make([][]byte, len(heads))
	for i, head := range heads {
		base := cfg.chainBase(i)
		tips[i] = cfg.genChain(head, i, 0, base-1, hashkey)
	}
	return cfg.combineChainTips(tips, hashkey)
}

// sign produces a WOTS signature: for each chain, the value at the
// digit position determined by digest.
func (cfg WotsConfig) sign(seed [32]byte, hashkey HashKey, digest []byte) []byte {
	digits := cfg.encode(digest)
	heads := cfg.expandSeed(seed, hashkey)
	n := int(cfg.Hash.Size)
	sig := make([]byte, len(heads)*n)
	for i, head := range heads {
		v := cfg.genChain(head, i, 0, uint16(digits[i]), hashkey)
		copy(sig[i*n:(i+1)*n], v)
	}
	return sig
}

// rootFromSignature continues each chain in sig from its signed digit to
// its tip, recovering the candidate public root for digest.
func (cfg WotsConfig) rootFromSignature(sig []byte, hashkey HashKey, digest []byte) []byte {
	digits := cfg.encode(digest)
	n := int(cfg.Hash.Size)
	tips := make([][]byte, len(digits))
	for i, d := range digits {
		base := cfg.chainBase(i)
		v := make([]byte, n)
		copy(v, sig[i*n:(i+1)*n])
		tips[i] = cfg.genChain(v, i, uint16(d), base-1-uint16(d), hashkey)
	}
	return cfg.combineChainTips(tips, hashkey)
}

// WotsState owns a single WOTS keypair's working state: the seed and
// hashkey it was derived from (if it holds a secret key), the root (if
// it holds or has computed a public key), and which of the two it is
// currently able to act as.
type WotsState struct {
	cfg    WotsConfig
	seed   [32]byte
	key    HashKey
	root   []byte
	hasSec bool
	hasPub bool
}

// NewWotsState allocates a WotsState for the given configuration.
func NewWotsState(cfg WotsConfig) *WotsState {
	return &WotsState{cfg: cfg}
}

// ImportSeckey loads a secret seed and hashkey, discarding any
// previously computed root.
func (ws *WotsState) ImportSeckey(seed [32]byte, hashkey HashKey) {
	ws.seed = seed
	ws.key = hashkey
	ws.hasSec = true
	ws.hasPub = false
	ws.root = nil
}

// ImportPubkey loads a root and hashkey directly, without a secret.
func (ws *WotsState) ImportPubkey(root []byte, hashkey HashKey) {
	ws.root = append([]byte(nil), root...)
	ws.key = hashkey
	ws.hasPub = true
	ws.hasSec = false
}

// GeneratePubkey derives the public root from the loaded secret key.
func (ws *WotsState) GeneratePubkey() error {
	if !ws.hasSec {
		return errorf("amss: WotsState has no secret key loaded")
	}
	ws.root = ws.cfg.publicRoot(ws.seed, ws.key)
	ws.hasPub = true
	return nil
}

// Root returns the currently known public root, or nil if none has been
// computed or imported yet.
func (ws *WotsState) Root() []byte { return ws.root }

// Sign produces a WOTS signature of digest under the loaded secret key.
func (ws *WotsState) Sign(digest []byte) ([]byte, error) {
	if !ws.hasSec {
		return nil, errorf("amss: WotsState has no secret key loaded")
	}
	return ws.cfg.sign(ws.seed, ws.key, digest), nil
}

// RootFromSig recovers the candidate public root for digest from sig,
// using the hashkey currently loaded into this state.
func (ws *WotsState) RootFromSig(digest, sig []byte) []byte {
	return ws.cfg.rootFromSignature(sig, ws.key, digest)
}

// Verify reports whether sig is a valid WOTS signature of digest against
// the loaded public root.
func (ws *WotsState) Verify(digest, sig []byte) (bool, error) {
	if !ws.hasPub {
		return false, errorf("amss: WotsState has no public key loaded")
	}
	candidate := ws.RootFromSig(digest, sig)
	return subtle.ConstantTimeCompare(candidate, ws.root) == 1, nil
}
