package recipe

import (
	"crypto/sha1" //nolint:gosec // content-addressing fingerprint, not a security boundary
	"encoding/hex"
	"os"
)

// FingerprintBytes returns the lowercase hex SHA1 of content, the
// recipe-revision id used when a recipe declares no "revision" hook
// and has no known backing file.
func FingerprintBytes(content []byte) string {
	sum := sha1.Sum(content) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// FingerprintFile returns FingerprintBytes of the file at path.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return FingerprintBytes(data), nil
}
