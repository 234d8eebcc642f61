package verify

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds each read; server cores are hashed without loading them whole.
const chunkSize = 32 * 1024

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrIO               = errors.New("artifact unreadable")
)

type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("error reading %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// DigestReader returns the lowercase hex SHA-1 of everything read from r.
func DigestReader(r io.Reader) (string, error) {
	hasher := sha1.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Digest hashes the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	defer f.Close()
	sum, err := DigestReader(f)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	return sum, nil
}

// Verifier compares a file digest against an expected value. A nil DigestFunc
// uses Digest.
type Verifier struct {
	DigestFunc func(path string) (string, error)
}

// Verify fails with *ChecksumMismatchError when the digests differ. Digests are
// compared as-is, without case or whitespace normalization.
func (v Verifier) Verify(path, expected string) error {
	digest := v.DigestFunc
	if digest == nil {
		digest = Digest
	}
	actual, err := digest(path)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return err
		}
		return &IOError{Path: path, Err: err}
	}
	if actual != expected {
		return &ChecksumMismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}

func Verify(path, expected string) error {
	return Verifier{}.Verify(path, expected)
}
