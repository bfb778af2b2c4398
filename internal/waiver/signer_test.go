package waiver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignerKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return base64.StdEncoding.EncodeToString(pemBytes)
}

func TestNewSignerRejectsBadKeys(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)

	_, err = NewSigner("not base64!!")
	assert.Error(t, err)

	_, err = NewSigner(base64.StdEncoding.EncodeToString([]byte("not pem")))
	assert.Error(t, err)
}

func TestNewSignerAcceptsPKCS8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	_, err = NewSigner(base64.StdEncoding.EncodeToString(pemBytes))
	assert.NoError(t, err)
}

func TestSignDeterministic(t *testing.T) {
	signer, err := NewSigner(testSignerKey(t))
	require.NoError(t, err)

	raw1, hash1, code1, err := signer.Sign("<svg>stroke</svg>")
	require.NoError(t, err)
	raw2, hash2, code2, err := signer.Sign("<svg>stroke</svg>")
	require.NoError(t, err)

	assert.Equal(t, raw1, raw2)
	assert.Equal(t, hash1, hash2)
	assert.Equal(t, code1, code2)

	_, _, otherCode, err := signer.Sign("<svg>different</svg>")
	require.NoError(t, err)
	assert.NotEqual(t, code1, otherCode)
}

func TestSignCodeShape(t *testing.T) {
	signer, err := NewSigner(testSignerKey(t))
	require.NoError(t, err)

	raw, hash, code, err := signer.Sign("<svg/>")
	require.NoError(t, err)

	assert.Len(t, hash, 64)
	assert.Len(t, code, confirmationCodeLen)
	assert.Equal(t, strings.ToUpper(code), code)
	assert.Equal(t, strings.ToUpper(hash[:confirmationCodeLen]), code)

	// The code is re-derivable from the archived raw signature alone.
	digest := sha256.Sum256([]byte(raw))
	rederived := strings.ToUpper(hex.EncodeToString(digest[:])[:confirmationCodeLen])
	assert.Equal(t, code, rederived)

	_, err = base64.StdEncoding.DecodeString(raw)
	assert.NoError(t, err)
}
