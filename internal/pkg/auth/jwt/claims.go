package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims of a session resume token. A client that holds a
// valid token may re-establish its session at connection time without
// resending credentials.
type Payload struct {
	// StandardClaims embeds the JWT standard fields (Exp, Iat, Iss) used for
	// validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the stable numeric identity ID assigned by the identity directory.
	ID int64 `json:"id"`

	// Username is the unique account name the identity is addressed by.
	Username string `json:"username"`
}
