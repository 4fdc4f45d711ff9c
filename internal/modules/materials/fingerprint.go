package materials

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
)

const fingerprintChunkSize = 4096

// FingerprintReader folds r into a SHA-256 digest chunk by chunk and returns the
// digest with the number of bytes read.
func FingerprintReader(r io.Reader) (Fingerprint, int64, error) {
	h := sha256.New()
	buf := make([]byte, fingerprintChunkSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", n, err
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), n, nil
}

func FingerprintFile(path string) (Fingerprint, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, &FileNotFoundError{Path: path, Cause: err}
		}
		return "", 0, err
	}
	defer f.Close()
	return FingerprintReader(f)
}

func FingerprintBytes(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}
