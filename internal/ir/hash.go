package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for algorithm migration without colliding with old hashes.
const (
	DomainDesign  = "hdlkit/design/v1"
	DomainProgram = "hdlkit/program/v1"
)

// HashWithDomain computes SHA-256 over domain + 0x00 + data. The null
// separator removes any ambiguity between domain and payload bytes.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DesignHash computes the content-addressed identity of a design. Two
// designs hash identically iff their canonical documents are byte-identical,
// which is what makes the hash usable as a compiled-artifact cache key and
// as the design reference stored with archived traces.
func DesignHash(d *Design) (string, error) {
	canonical, err := MarshalCanonical(d.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("DesignHash: %w", err)
	}
	return HashWithDomain(DomainDesign, canonical), nil
}
