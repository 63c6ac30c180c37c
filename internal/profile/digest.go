package profile

import (
	"crypto/sha1" //nolint:gosec // content-addressing digest, not a security boundary
	"encoding/binary"
	"encoding/hex"
	"io"
)

// Digest is the SHA1 digest of a profile's identity-bearing fields.
type Digest [sha1.Size]byte

// ShortHash returns the first ten lowercase hex characters of the
// digest, used as the directory prefix for profile-specific cache and
// build directories.
func (d Digest) ShortHash() string {
	return hex.EncodeToString(d[:])[:10]
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Compute builds the profile digest by feeding, in order: the host's
// arch (little-endian 4-byte cast), the host's os, the build-type, then
// for each compiler sorted by language: language, name, version.
// Strings are fed as bytes followed by a single NUL; arrays are
// prepended with a 4-byte length.
func (p *Profile) Compute() Digest {
	h := sha1.New() //nolint:gosec

	archBytes := archLE32(p.Host.Arch)
	h.Write(archBytes[:])
	writeCString(h, string(p.Host.OS))
	writeCString(h, string(p.BuildType))

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p.Compilers)))
	h.Write(lenBuf[:])

	for _, c := range p.Compilers {
		writeCString(h, string(c.Lang))
		writeCString(h, c.Name)
		writeCString(h, c.Version)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func writeCString(w io.Writer, s string) {
	w.Write([]byte(s))
	w.Write([]byte{0})
}
