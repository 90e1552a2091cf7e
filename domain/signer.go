package domain

// Signer is the core port for authenticating payloads. Sign is pure and
// deterministic: the same timestamp and payload always yield the same
// signature, and the timestamp is bound into the signed material so a
// receiver can reject stale or replayed requests.
type Signer interface {
	Sign(timestamp string, payload []byte) string
}
