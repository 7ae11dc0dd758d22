// ABOUTME: TemporarySummary rolling continuity digest and context fingerprint
// ABOUTME: The fingerprint bounds hashing cost for arbitrarily long contexts
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// hashWholeLimit is the context length up to which the whole string
	// is hashed.
	hashWholeLimit = 2000
	// hashEdgeLen is how many characters of each end are hashed for
	// longer contexts.
	hashEdgeLen = 1000
)

// TemporarySummary is a compact rolling digest of all upstream context
// needed for the next generation call: a trailing summary plus a
// continuation cue, keyed by a fingerprint of the context it was
// computed from.
type TemporarySummary struct {
	Summary      string    `json:"summary"`
	Continuation string    `json:"continuation,omitempty"`
	ContextHash  string    `json:"context_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the summary is older than ttl. A zero or
// negative ttl means summaries never expire.
func (s *TemporarySummary) Expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(s.CreatedAt) > ttl
}

// HashContext fingerprints a context string at bounded cost. Short
// contexts are hashed whole; longer ones hash (length, first 1000 chars,
// last 1000 chars), so edits confined to the middle of a long context do
// not change the hash. That collision window is accepted in exchange for
// O(1) hashing regardless of context size.
func HashContext(context string) string {
	h := sha256.New()
	runes := []rune(context)
	if len(runes) <= hashWholeLimit {
		h.Write([]byte(context))
	} else {
		fmt.Fprintf(h, "%d:", len(runes))
		h.Write([]byte(string(runes[:hashEdgeLen])))
		h.Write([]byte(string(runes[len(runes)-hashEdgeLen:])))
	}
	return hex.EncodeToString(h.Sum(nil))
}
