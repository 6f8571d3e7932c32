package ast

import (
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"hash/fnv"
)

// Span identifies a node's byte range in its source file plus a stable,
// deterministic identifier derived from (doc_id, start, end). Two nodes in
// the same document only ever share a Span.id if they occupy the same byte
// range, which the parser never produces for distinct nodes.
type Span struct {
	Start uint32
	End   uint32
	ID    string
}

// DocID computes the document identifier used to namespace Span and
// SemanticID segments across files: hex(crc32("file://" + canonicalPath)).
func DocID(canonicalPath string) string {
	sum := crc32.ChecksumIEEE([]byte("file://" + canonicalPath))
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], sum)
	return hex.EncodeToString(buf[:])
}

// IDGenerator produces deterministic Span ids for one parse of one
// document. It is seeded from the document id and lives only for the
// duration of that parse; it holds no other state.
type IDGenerator struct {
	docID string
}

// NewIDGenerator creates a generator scoped to docID.
func NewIDGenerator(docID string) *IDGenerator {
	return &IDGenerator{docID: docID}
}

// Span builds the Span for the byte range [start, end).
func (g *IDGenerator) Span(start, end uint32) Span {
	return Span{Start: start, End: end, ID: spanID(g.docID, start, end)}
}

func spanID(docID string, start, end uint32) string {
	h := fnv.New64a()
	h.Write([]byte(docID))
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], start)
	binary.BigEndian.PutUint32(buf[4:8], end)
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}
