package provider

// SignatureVerifier authenticates inbound payment webhooks
type SignatureVerifier interface {
	// Verify checks the signature headers against the raw body.
	// Returns ErrInvalidSignature when they do not match.
	Verify(timestamp, signature string, body []byte) error
}
