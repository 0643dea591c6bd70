package badger

import (
	"encoding/binary"

	"github.com/poiesic/docqa/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chunk:"
)

// makeChunkKey generates a key for an index record by chunk ID.
// Format: prefix + 8 byte big-endian ID
func makeChunkKey(id core.ID) []byte {
	buf := make([]byte, len(chunkRecordPrefix)+8)
	offset := copy(buf, chunkRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
