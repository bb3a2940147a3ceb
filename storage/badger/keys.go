package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/inkwell/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentScopePrefix = "docscope"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeScopeKey generates a composite key for the scope index.
// Format: prefix + length-prefixed courseID + id, with the ID in BigEndian
// so entries within a scope sort deterministically.
func makeScopeKey(courseID string, id core.ID) []byte {
	prefix := makeScopePrefix(courseID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeScopePrefix generates the iteration prefix for all documents in a
// scope. The course id is length-prefixed so that no scope's prefix can
// be a byte prefix of another scope's keys, whatever characters the
// course id contains.
func makeScopePrefix(courseID string) []byte {
	head := documentScopePrefix + ":"
	buf := make([]byte, len(head)+ord.String.Size(courseID))
	offset := copy(buf, head)
	ord.String.Marshal(courseID, buf[offset:])
	return buf
}

// scopeKeyDocumentID extracts the document ID from a scope index key.
func scopeKeyDocumentID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}
