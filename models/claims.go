package models

// IDTokenClaims is the payload of a bearer token issued for a signed-in user.
type IDTokenClaims struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub"`
	Name      string `json:"name,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
