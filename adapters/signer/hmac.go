package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"chatrelay/domain"
)

// separator joins the timestamp and payload in the signed material so
// the signature is bound to both content and issue time.
const separator = "."

// New returns a domain.Signer backed by HMAC‑SHA256. An empty secret is
// a configuration error and is expected to be caught at startup.
func New(secret []byte) domain.Signer { return hmacSigner{secret: secret} }

type hmacSigner struct {
	secret []byte
}

func (s hmacSigner) Sign(timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(separator))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches timestamp and payload under
// the same secret, in constant time.
func Verify(signer domain.Signer, timestamp string, payload []byte, signature string) bool {
	expected := signer.Sign(timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
