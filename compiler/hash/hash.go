// Package hash computes structural fingerprints of parsed PBR programs.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pbrlang/pbr/compiler"
)

// Program computes the SHA-256 fingerprint of a parsed program.
//
// The hash is computed over a deterministic serialization of the AST that
// omits source positions, so reformatting or re-commenting a file keeps
// its fingerprint while any structural change alters it.
func Program(p *compiler.Program) [32]byte {
	return sha256.Sum256(Serialize(p))
}

// Key returns the fingerprint of p salted with the generator version, for
// use as a build cache key.
func Key(p *compiler.Program) []byte {
	h := sha256.New()
	h.Write([]byte(compiler.GeneratorVersion))
	h.Write(Serialize(p))
	return h.Sum(nil)
}

// Hex renders a fingerprint for logs and lock files.
func Hex(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}
