package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	sessionPrefix = "sess:"
	chunkPrefix   = "chunk:"
)

// makeSessionKey generates a key for a session by ID.
func makeSessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// makeChunkNamespacePrefix generates the key prefix shared by every chunk in a namespace.
// Format: prefix:len(namespace):namespace
// The length is written in BigEndian so no namespace is a prefix of another.
func makeChunkNamespacePrefix(namespace string) []byte {
	prefixBytes := []byte(chunkPrefix)
	buf := make([]byte, len(prefixBytes)+2+len(namespace))
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(namespace)))
	offset += 2
	copy(buf[offset:], namespace)
	return buf
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:len(namespace):namespace:id
func makeChunkKey(namespace, id string) []byte {
	nsPrefix := makeChunkNamespacePrefix(namespace)
	buf := make([]byte, len(nsPrefix)+len(id))
	offset := copy(buf, nsPrefix)
	copy(buf[offset:], id)
	return buf
}
