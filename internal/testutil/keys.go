package testutil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"sync"
	"testing"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
	keyErr  error
)

// RSAKey returns a process-wide 2048 bit test key. Generating one per test
// would dominate the runtime of the suite.
func RSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	keyOnce.Do(func() {
		key, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("failed to generate RSA key: %v", keyErr)
	}
	return key
}

// PKCS1PEM returns the test key as an unencrypted PKCS #1 PEM block.
func PKCS1PEM(t *testing.T) []byte {
	t.Helper()

	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(RSAKey(t)),
	})
}

// PKCS8PEM returns the test key as an unencrypted PKCS #8 PEM block.
func PKCS8PEM(t *testing.T) []byte {
	t.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(RSAKey(t))
	if err != nil {
		t.Fatalf("failed to marshal PKCS #8 key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// VerifySignature checks a base64 RSA-SHA256 signature over content against
// the test key.
func VerifySignature(t *testing.T, content []byte, signature string) {
	t.Helper()

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		t.Fatalf("signature is not valid base64: %v", err)
	}
	digest := sha256.Sum256(content)
	if err := rsa.VerifyPKCS1v15(&RSAKey(t).PublicKey, crypto.SHA256, digest[:], sig); err != nil {
		t.Fatalf("signature does not verify: %v", err)
	}
}
