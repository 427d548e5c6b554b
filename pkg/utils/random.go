package utils

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Keys are case-insensitive, so the generator only ever emits lower case.
const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

var seededRand *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

// GenerateKey generates a random short-link key of fixed length
func GenerateKey(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GenerateAPIKey generates a UUID string to be used as an API key
func GenerateAPIKey() string {
	return uuid.NewString()
}
