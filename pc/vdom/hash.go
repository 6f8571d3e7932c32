package vdom

import (
	"encoding/hex"
	"hash/fnv"
)

// hashString derives a short deterministic token from s for use in
// generated class names. Non-cryptographic: collisions are tolerable here
// because class names are scoped by SemanticID uniqueness already, not by
// the hash itself.
func hashString(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:6])
}
