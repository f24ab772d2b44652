// Package token produces the opaque download credentials issued on approval.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// entropyBytes is the raw entropy per credential. 32 bytes gives 256 bits,
// which makes collisions and enumeration negligible for the system lifetime.
const entropyBytes = 32

// Length is the fixed length of every generated credential string.
var Length = base64.RawURLEncoding.EncodedLen(entropyBytes)

// Generate returns a new unguessable credential, URL-safe base64 without
// padding. Exhaustion of the entropy source is unrecoverable, so it panics
// rather than returning an error.
func Generate() string {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("token: entropy source failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Prefix returns the short prefix of a credential that is safe to put in
// application logs. Full values appear only in the audit table.
func Prefix(value string) string {
	if len(value) <= 8 {
		return value
	}
	return value[:8]
}
