package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// FingerprintChunks computes a deterministic 64-bit fingerprint over the
// chunk contents of a corpus, in order. Both index artifacts of one build
// record the same fingerprint, which lets the loader reject artifact pairs
// that come from different corpora even when their chunk counts agree.
func FingerprintChunks(chunks []Chunk) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	var sep [1]byte
	for i := range chunks {
		h.Write([]byte(chunks[i].Content))
		h.Write(sep[:])
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
