package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// NewPaymentReference builds a unique transaction reference for a gateway,
// e.g. "WAVE_9F86D081884C7D65". References must never collide across
// concurrent calls, so the suffix comes from a v4 UUID.
func NewPaymentReference(gateway string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(gateway + "_" + suffix)
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
