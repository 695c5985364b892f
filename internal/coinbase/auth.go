package coinbase

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coinhook/relay/errs"
)

// credentialTTL bounds how long a signed request remains valid. The exchange
// rejects tokens past this window, which also caps end-to-end call latency.
const credentialTTL = 120 // seconds

// bearerToken builds a single-use ES256 credential bound to the exact
// method and path being called.
func (c *Client) bearerToken(method, path string) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", errs.New(venue, errs.CodeAuth, errs.WithMessage("generate nonce"), errs.WithCause(err))
	}

	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub": c.apiKey,
		"iss": "cdp",
		"nbf": now.Unix(),
		"exp": now.Unix() + credentialTTL,
		"uri": method + " " + c.host + path,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.apiKey
	token.Header["nonce"] = nonce

	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", errs.New(venue, errs.CodeAuth, errs.WithMessage("sign request credential"), errs.WithCause(err))
	}
	return signed, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// parsePrivateKey loads an EC private key from PEM, accepting both SEC1 and
// PKCS#8 encodings since the exchange has issued both.
func parsePrivateKey(pemData string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errs.New(venue, errs.CodeAuth, errs.WithMessage("api secret is not a PEM block"))
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errs.New(venue, errs.CodeAuth, errs.WithMessage("parse EC private key"), errs.WithCause(err))
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errs.New(venue, errs.CodeAuth, errs.WithMessage("api secret is not an EC key"))
	}
	return key, nil
}
