package service

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// PointID derives the vector-store identifier of a chunk: a name-based
// (version 3) UUID over the raw bytes of chunkID, with no namespace prefix.
// The same chunk id always yields the same point id.
func PointID(chunkID string) string {
	h := md5.Sum([]byte(chunkID))
	h[6] = (h[6] & 0x0f) | 0x30
	h[8] = (h[8] & 0x3f) | 0x80
	return uuid.UUID(h).String()
}
