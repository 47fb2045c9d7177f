package simulation

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SubSeed derives the seed for one run from the base seed and run index.
// Formula: first 8 bytes of SHA256("<baseSeed>|<runIndex>"), big-endian.
//
// Every run owns an independently seeded generator, so a batch produces
// identical results whether it executes sequentially, across worker
// goroutines, or split over processes.
func SubSeed(baseSeed int64, runIndex int) int64 {
	data := fmt.Sprintf("%d|%d", baseSeed, runIndex)
	hash := sha256.Sum256([]byte(data))
	return int64(binary.BigEndian.Uint64(hash[:8]))
}
