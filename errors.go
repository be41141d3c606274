package amss

import (
	"fmt"
	goLog "log"
)

// Error is returned by the fallible operations in this package.  In
// addition to the usual error interface, it exposes whether the failure
// is permanent (Locked) and, if it wraps another error, that inner error.
// The one exception is Config.Validate (and so GenerateKeyPair, NewKeyPair
// and Verify when given an invalid Config), which returns an aggregated
// *multierror.Error whose entries wrap the individual Error values.
type Error interface {
	error
	Locked() bool
	Inner() error
}

type errorImpl struct {
	msg    string
	locked bool
	inner  error
}

func (err *errorImpl) Locked() bool { return err.locked }
func (err *errorImpl) Inner() error { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

// Formats a new Error.
func errorf(format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...)}
}

// Formats a new Error that wraps another.
func wrapErrorf(err error, format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), inner: err}
}

// Formats a new Error that is permanent: retrying the call that produced
// it will not help.
func lockedErrorf(format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), locked: true}
}

// errExhausted is returned once an AMSS state's leaf index has reached
// 2^height, the number of leaves of the configured tree: every one-time
// key has already been used and no further signature can be produced
// from this state.
func errExhausted(leafIdx uint64, height uint32) *errorImpl {
	return lockedErrorf("amss: key exhausted: leaf index %d reached the 2^%d leaf limit", leafIdx, height)
}

// errConfigInvalid is returned when a HashConfig, WotsConfig or
// MerkleConfig describes a combination this package cannot realize
// (unsupported (n,w) pair, zero height, disallowed chain count, ...).
func errConfigInvalid(reason string) *errorImpl {
	return errorf("amss: invalid configuration: %s", reason)
}

// errAllocationFailed wraps a failure to obtain the resources key
// generation needs; GenerateKeyPair uses it when reading random seed or
// hashkey material fails.
func errAllocationFailed(err error, reason string) *errorImpl {
	return wrapErrorf(err, "amss: allocation failed: %s", reason)
}

type dummyLogger struct{}
type stdlibLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

// Logger receives diagnostic messages emitted during key generation,
// signing and the background growth of the fractal Merkle tree.
type Logger interface {
	Logf(format string, a ...interface{})
}

// EnableLogging sends log output to the standard log package.  For more
// control, see SetLogger.
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// SetLogger installs logger as the destination for diagnostic output.
// Passing nil disables logging.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
