package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderSignature carries the provider's body signature.
const HeaderSignature = "x-retell-signature"

// SignatureVerifier checks HMAC-SHA256 signatures over the raw request body.
// An empty secret accepts every request.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) SignatureVerifier {
	return SignatureVerifier{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (v SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify compares the hex digest in header against the body digest.
// A "sha256=" prefix on the header is accepted.
func (v SignatureVerifier) Verify(body []byte, header string) bool {
	if !v.Enabled() {
		return true
	}
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(header, "sha256=")
	given, err := hex.DecodeString(header)
	if err != nil || len(given) == 0 {
		return false
	}
	return hmac.Equal(given, v.Sign(body))
}

// Sign returns the raw HMAC of body.
func (v SignatureVerifier) Sign(body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
