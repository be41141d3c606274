package amss

// The keyed-hash oracle underlying every other component: WOTS chain
// steps, seed expansion and Merkle node combination all funnel through
// HashConfig.H.

import (
	"crypto/sha256"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HashAlgo names one of the digest families this package can drive the
// oracle with.
type HashAlgo uint8

const (
	SHA2 HashAlgo = iota
	SHA3
	SHAKE128
	SHAKE256
	BLAKE2b
)

func (a HashAlgo) String() string {
	switch a {
	case SHA2:
		return "SHA2"
	case SHA3:
		return "SHA3"
	case SHAKE128:
		return "SHAKE-128"
	case SHAKE256:
		return "SHAKE-256"
	case BLAKE2b:
		return "BLAKE2b"
	default:
		return "unknown"
	}
}

// HashConfig fixes the algorithm and output width (n) of the keyed-hash
// oracle.  It is a plain value: callers thread it explicitly rather than
// relying on package-level state, so that a process can run several
// AMSS states with different hash configurations concurrently.
type HashConfig struct {
	Algo HashAlgo
	Size uint32 // n, in bytes

	// calls counts oracle invocations for benchmarking; see CallCount.
	calls *uint64
}

// NewHashConfig validates and returns a HashConfig for the given
// algorithm and output width.
func NewHashConfig(algo HashAlgo, size uint32) (HashConfig, error) {
	cfg := HashConfig{Algo: algo, Size: size, calls: new(uint64)}
	if err := cfg.Validate(); err != nil {
		return HashConfig{}, err
	}
	return cfg, nil
}

// Validate reports whether the (algorithm, size) combination is one the
// oracle can realize.
func (cfg HashConfig) Validate() error {
	switch cfg.Algo {
	case SHA2, SHA3:
		if cfg.Size == 0 || cfg.Size > 32 {
			return errConfigInvalid("SHA2/SHA3 output size must be in (0,32] bytes")
		}
	case SHAKE128, SHAKE256:
		if cfg.Size == 0 {
			return errConfigInvalid("SHAKE output size must be positive")
		}
	case BLAKE2b:
		switch cfg.Size {
		case 16, 20, 24, 28, 32, 48, 64:
		default:
			return errConfigInvalid("unsupported BLAKE2b output size")
		}
	default:
		return errConfigInvalid("unrecognized hash algorithm")
	}
	return nil
}

// N returns the configured output width in bytes.
func (cfg HashConfig) N() uint32 { return cfg.Size }

// CallCount returns the number of oracle invocations made through this
// HashConfig since it was created or last reset, mirroring the
// benchmark-harness call counters of the reference implementation.
func (cfg HashConfig) CallCount() uint64 {
	if cfg.calls == nil {
		return 0
	}
	return atomic.LoadUint64(cfg.calls)
}

// ResetStats zeroes the call counter.
func (cfg HashConfig) ResetStats() {
	if cfg.calls != nil {
		atomic.StoreUint64(cfg.calls, 0)
	}
}

func (cfg HashConfig) bumpStats() {
	if cfg.calls != nil {
		atomic.AddUint64(cfg.calls, 1)
	}
}

// H is the keyed-hash oracle: H(key, input) -> n-byte output.  A nil key
// is treated as an absent key (no prefix/native-key contribution).  For
// SHA2, SHA3, SHAKE-128 and SHAKE-256, a present key prepends its 16
// bytes to input before hashing; for BLAKE2b, a present key is passed to
// BLAKE2b's native keying interface instead.
func (cfg HashConfig) H(key *HashKey, input []byte) []byte {
	out := make([]byte, cfg.Size)
	cfg.HInto(key, input, out)
	return out
}

// HInto is the allocation-free form of H: out must have length cfg.Size.
func (cfg HashConfig) HInto(key *HashKey, input []byte, out []byte) {
	cfg.bumpStats()
	switch cfg.Algo {
	case SHA2:
		h := sha256.New()
		if key != nil {
			h.Write(key[:])
		}
		h.Write(input)
		var sum [32]byte
		h.Sum(sum[:0])
		copy(out, sum[:cfg.Size])
	case SHA3:
		h := sha3.New256()
		if key != nil {
			h.Write(key[:])
		}
		h.Write(input)
		var sum [32]byte
		h.Sum(sum[:0])
		copy(out, sum[:cfg.Size])
	case SHAKE128:
		h := sha3.NewShake128()
		if key != nil {
			h.Write(key[:])
		}
		h.Write(input)
		h.Read(out)
	case SHAKE256:
		h := sha3.NewShake256()
		if key != nil {
			h.Write(key[:])
		}
		h.Write(input)
		h.Read(out)
	case BLAKE2b:
		var keyBytes []byte
		if key != nil {
			keyBytes = key[:]
		}
		h, err := blake2b.New(int(cfg.Size), keyBytes)
		if err != nil {
			// Only reachable if Validate was bypassed; the configured
			// size/key combination is otherwise always legal.
			panic(wrapErrorf(err, "amss: blake2b.New"))
		}
		h.Write(input)
		var sum [64]byte
		h.Sum(sum[:0])
		copy(out, sum[:cfg.Size])
	default:
		panic(errConfigInvalid("unrecognized hash algorithm"))
	}
}

// Fingerprint returns a short, non-cryptographic hex digest of data for
// use in log lines and debug dumps, mirroring HASH_hexstr from the
// reference C implementation without spending a real digest on it.
func Fingerprint(data []byte) string {
	sum := xxhash.Sum64(data)
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 0; i < 8; i++ {
		b := byte(sum >> uint(8*(7-i)))
		buf[2*i] = hexDigits[b>>4]
		buf[2*i+1] = hexDigits[b&0xf]
	}
	return string(buf)
}
