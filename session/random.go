package session

import (
	"crypto/rand"
	"encoding/base64"
)

// randomToken returns a 256-bit URL-safe random string for state and nonce
// parameters.
func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure means the platform RNG is broken; there is
		// no reasonable fallback for CSRF material.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
