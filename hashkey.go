package amss

// resetTag is the sentinel value placed in byte 0 of a HashKey while
// expanding a WOTS seed.  It cannot double as a legitimate chain index,
// which is why WotsConfig validation caps NumChains at 255.
const resetTag = 255

// HashKey is the 16-byte domain-separation key threaded through every
// call to the keyed-hash oracle.  Byte 0 carries the WOTS chain tag (or
// the seed-expansion reset tag), byte 1 the within-chain hash tag; bytes
// 2..15 are the caller-supplied key material that persists for the life
// of an AMSS state.
type HashKey [16]byte

// SetChainTag overwrites byte 0, used by the WOTS engine to separate the
// hash schedules of distinct chains sharing one seed.
func (k *HashKey) SetChainTag(chain uint8) {
	k[0] = chain
}

// SetHashTag overwrites byte 1 with the position of a hash step within
// a chain.
func (k *HashKey) SetHashTag(pos uint8) {
	k[1] = pos
}

// SetResetTag overwrites byte 0 with the seed-expansion sentinel.
func (k *HashKey) SetResetTag() {
	k[0] = resetTag
}

// Bytes returns the 16 bytes of the key as a fresh slice.
func (k *HashKey) Bytes() []byte {
	out := make([]byte, 16)
	copy(out, k[:])
	return out
}

// NewHashKey wraps 16 bytes of key material, normally produced by
// KeyGen, as a HashKey.  Bytes 0 and 1 are overwritten by SetChainTag,
// SetHashTag or SetResetTag on the copies used for WOTS chain steps and
// seed expansion; Merkle node hashing, chain-tip folding and seed
// evolution use all 16 bytes as supplied.
func NewHashKey(material [16]byte) HashKey {
	return HashKey(material)
}
