package domain

// TokenPayload holds the claims embedded in a signed session token.
type TokenPayload struct {
	UserID   int64
	Username string
}

// TokenSigner turns a payload into an opaque bearer token and back.
// Expiry and issuer are properties of the signer, not of the payload.
type TokenSigner interface {
	Sign(payload TokenPayload) (string, error)
	Verify(token string) (TokenPayload, error)
}
