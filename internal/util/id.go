package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/segmentio/ksuid"
)

// NewID returns a time-sortable identifier. Identifiers sharing a prefix
// sort by creation time.
func NewID(prefix string) string {
	id := ksuid.New().String()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// NewSecret returns a random opaque secret, hex encoded.
func NewSecret() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
