// Package idhash computes deterministic identifiers for simulation
// batches, so that persisted results can be traced back to the exact
// (outcome set, configuration) pair that produced them.
package idhash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"trade-risk-lab/internal/domain"
)

// HashOutcomes computes a deterministic digest of an outcome set.
// Values are hashed by their exact IEEE-754 bit patterns, so two sets are
// equal under this hash iff they are bit-identical in order and content.
func HashOutcomes(set *domain.OutcomeSet) string {
	h := sha256.New()
	var buf [8]byte
	for i := 0; i < set.Len(); i++ {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(set.At(i)))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeBatchID computes a deterministic batch_id using SHA256.
// Formula: SHA256(outcomes_hash|seed|num_simulations|trades_per_sim|thresholds|var_levels)
// Returns hex-encoded hash (64 characters).
func ComputeBatchID(set *domain.OutcomeSet, cfg domain.SimConfig) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%s|%s",
		HashOutcomes(set),
		cfg.Seed,
		cfg.NumSimulations,
		cfg.TradesFor(set.Len()),
		joinFloats(cfg.DrawdownThresholds),
		joinFloats(cfg.VaRLevels),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortBatchID renders a compact base58 form of a batch_id for report
// filenames and log labels. Non-hex input is hashed first, so the result
// is always defined and deterministic.
func ShortBatchID(batchID string) string {
	raw, err := hex.DecodeString(batchID)
	if err != nil || len(raw) < 8 {
		sum := sha256.Sum256([]byte(batchID))
		raw = sum[:]
	}
	return base58.Encode(raw[:8])
}

// joinFloats renders floats canonically (shortest round-trip form).
func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
