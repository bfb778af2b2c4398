package waiver

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// confirmationCodeLen is the number of hex digest characters kept for the
// human-displayable confirmation code.
const confirmationCodeLen = 6

// Signer turns raw signature artwork into a confirmation code. The pipeline
// is fully deterministic: RSA-SHA256 (PKCS#1 v1.5) over the artwork, SHA-256
// over the base64 signature, then a truncated upper-cased prefix. The same
// artwork under the same key always yields the same code, which is what lets
// the validation endpoint re-derive it from the archived artifact.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner parses the base64-encoded PEM private key.
func NewSigner(encodedKey string) (*Signer, error) {
	if encodedKey == "" {
		return nil, errors.New("signer: empty key")
	}
	pemBytes, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("signer: decode key: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("signer: no PEM block in key")
	}
	key, err := parseRSAKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signer: parse key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Sign produces the base64 raw signature, the full hex confirmation digest
// and the truncated display code for the given artwork.
func (s *Signer) Sign(artwork string) (rawSignature, confirmationHash, confirmationCode string, err error) {
	hashed := sha256.Sum256([]byte(artwork))
	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, hashed[:])
	if err != nil {
		return "", "", "", fmt.Errorf("signer: sign: %w", err)
	}
	rawSignature = base64.StdEncoding.EncodeToString(sig)

	digest := sha256.Sum256([]byte(rawSignature))
	confirmationHash = hex.EncodeToString(digest[:])
	confirmationCode = strings.ToUpper(confirmationHash[:confirmationCodeLen])
	return rawSignature, confirmationHash, confirmationCode, nil
}

func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA key")
	}
	return key, nil
}
