package amss

// Packed binary encodings for PubKey and Signature, per the wire format
// fixed in the external-interfaces design: a config descriptor, then
// the hashkey and root for a public key; a 16-bit leaf index, then the
// WOTS chains and authentication path for a signature.

import (
	"encoding/binary"
)

// descriptor is 6 bytes: algo, n, w-index, mode, height (16-bit LE).
func wIndex(w uint16) (uint8, error) {
	switch w {
	case 4:
		return 0, nil
	case 16:
		return 1, nil
	case 32:
		return 2, nil
	case 256:
		return 3, nil
	default:
		return 0, errConfigInvalid("code_base w must be one of {4,16,32,256}")
	}
}

func wFromIndex(idx uint8) (uint16, error) {
	switch idx {
	case 0:
		return 4, nil
	case 1:
		return 16, nil
	case 2:
		return 32, nil
	case 3:
		return 256, nil
	default:
		return 0, errorf("amss: bad config descriptor: unknown w index %d", idx)
	}
}

func (cfg Config) encodeDescriptor() ([]byte, error) {
	wi, err := wIndex(cfg.W)
	if err != nil {
		return nil, err
	}
	if cfg.Height > 0xffff {
		return nil, errorf("amss: height %d too large for the 16-bit wire descriptor", cfg.Height)
	}
	buf := make([]byte, 6)
	buf[0] = byte(cfg.Hash.Algo)
	buf[1] = byte(cfg.Hash.Size)
	buf[2] = wi
	buf[3] = byte(cfg.Mode)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(cfg.Height))
	return buf, nil
}

func decodeDescriptor(buf []byte) (Config, error) {
	if len(buf) < 6 {
		return Config{}, errorf("amss: config descriptor too short")
	}
	w, err := wFromIndex(buf[2])
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Hash:   HashConfig{Algo: HashAlgo(buf[0]), Size: uint32(buf[1]), calls: new(uint64)},
		W:      w,
		Mode:   FractalMode(buf[3]),
		Height: uint32(binary.LittleEndian.Uint16(buf[4:6])),
	}
	return cfg, nil
}

// MarshalBinary encodes pub as: config descriptor (6 bytes) || hashkey
// (16 bytes) || root (n bytes).
func (pub PubKey) MarshalBinary() ([]byte, error) {
	desc, err := pub.Cfg.encodeDescriptor()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(desc)+16+int(pub.Cfg.Hash.Size))
	out = append(out, desc...)
	out = append(out, pub.HashKey[:]...)
	out = append(out, pub.Root...)
	return out, nil
}

// UnmarshalBinary decodes a PubKey previously produced by MarshalBinary.
func (pub *PubKey) UnmarshalBinary(data []byte) error {
	if len(data) < 6 {
		return errorf("amss: public key too short")
	}
	cfg, err := decodeDescriptor(data[:6])
	if err != nil {
		return err
	}
	rest := data[6:]
	if len(rest) != 16+int(cfg.Hash.Size) {
		return errorf("amss: public key has wrong length for its descriptor")
	}
	var hk HashKey
	copy(hk[:], rest[:16])
	pub.Cfg = cfg
	pub.HashKey = hk
	pub.Root = append([]byte(nil), rest[16:]...)
	return nil
}

// MarshalBinary encodes sig as: leaf_idx (16-bit unsigned LE) ||
// num_chains*n bytes of WOTS chains || h*n bytes of authentication
// path, bottom-to-top. The leaf index field is 16 bits wide, so this
// encoding only round-trips for trees of height <= 16.
func (sig *Signature) MarshalBinary(cfg Config) ([]byte, error) {
	if sig.LeafIdx > 0xffff {
		return nil, errorf("amss: leaf index %d too large for the 16-bit wire format", sig.LeafIdx)
	}
	out := make([]byte, 2, 2+len(sig.Wots)+len(sig.Path)*int(cfg.Hash.Size))
	binary.LittleEndian.PutUint16(out[0:2], uint16(sig.LeafIdx))
	out = append(out, sig.Wots...)
	for _, node := range sig.Path {
		out = append(out, node...)
	}
	return out, nil
}

// UnmarshalBinary decodes a Signature previously produced by
// MarshalBinary, given the Config it was produced under.
func (sig *Signature) UnmarshalBinary(cfg Config, data []byte) error {
	n := int(cfg.Hash.Size)
	numChains := cfg.wots().NumChains()
	wantLen := 2 + numChains*n + int(cfg.Height)*n
	if len(data) != wantLen {
		return errorf("amss: signature has wrong length: got %d want %d", len(data), wantLen)
	}
	sig.LeafIdx = uint64(binary.LittleEndian.Uint16(data[0:2]))
	pos := 2
	sig.Wots = append([]byte(nil), data[pos:pos+numChains*n]...)
	pos += numChains * n
	sig.Path = make([][]byte, cfg.Height)
	for i := range sig.Path {
		sig.Path[i] = append([]byte(nil), data[pos:pos+n]...)
		pos += n
	}
	return nil
}
