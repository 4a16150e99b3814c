package artifact

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/youmark/pkcs8"
)

// KeyError is returned when signing key material cannot be turned into an
// RSA private key.
type KeyError struct {
	Format string
	Err    error
}

func (e *KeyError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("load signing key: %v", e.Err)
	}
	return fmt.Sprintf("load signing key (%s): %v", e.Format, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Signer produces base64 RSA-SHA256 (PKCS #1 v1.5) signatures.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner wraps an already decoded RSA key.
func NewSigner(key *rsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// LoadSigner decodes RSA key material protected by an optional passphrase.
// Accepted formats:
//   - PEM "RSA PRIVATE KEY" (PKCS #1, optionally legacy-encrypted)
//   - PEM "PRIVATE KEY" (PKCS #8)
//   - PEM "ENCRYPTED PRIVATE KEY" (PKCS #8 with PBES2)
//   - armored OpenPGP private key with an RSA primary key
func LoadSigner(material []byte, passphrase string) (*Signer, error) {
	material = bytes.TrimSpace(material)
	if len(material) == 0 {
		return nil, &KeyError{Err: errors.New("key material is empty")}
	}

	if bytes.Contains(material, []byte("BEGIN PGP PRIVATE KEY BLOCK")) {
		key, err := loadOpenPGPKey(material, passphrase)
		if err != nil {
			return nil, &KeyError{Format: "openpgp", Err: err}
		}
		return NewSigner(key), nil
	}

	block, _ := pem.Decode(material)
	if block == nil {
		return nil, &KeyError{Err: errors.New("no PEM block found")}
	}

	key, err := loadPEMKey(block, passphrase)
	if err != nil {
		return nil, &KeyError{Format: strings.ToLower(block.Type), Err: err}
	}
	return NewSigner(key), nil
}

// Sign signs a SHA-256 digest and returns the base64 encoded signature.
func (s *Signer) Sign(digest []byte) (string, error) {
	if len(digest) != crypto.SHA256.Size() {
		return "", fmt.Errorf("sign: digest is %d bytes, want %d", len(digest), crypto.SHA256.Size())
	}
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// PublicKey returns the public half of the signing key.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}

func loadPEMKey(block *pem.Block, passphrase string) (*rsa.PrivateKey, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		der := block.Bytes
		//nolint:staticcheck // Legacy PEM encryption is still produced by openssl genrsa -aes256
		if x509.IsEncryptedPEMBlock(block) {
			if passphrase == "" {
				return nil, errors.New("key is encrypted but no passphrase was given")
			}
			var err error
			//nolint:staticcheck // See above
			der, err = x509.DecryptPEMBlock(block, []byte(passphrase))
			if err != nil {
				return nil, fmt.Errorf("decrypt: %w", err)
			}
		}
		return x509.ParsePKCS1PrivateKey(der)

	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T (RSA required)", parsed)
		}
		return key, nil

	case "ENCRYPTED PRIVATE KEY":
		if passphrase == "" {
			return nil, errors.New("key is encrypted but no passphrase was given")
		}
		return pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))

	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

func loadOpenPGPKey(material []byte, passphrase string) (*rsa.PrivateKey, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(material))
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}
	if len(entities) == 0 || entities[0].PrivateKey == nil {
		return nil, errors.New("keyring holds no private key")
	}

	privateKey := entities[0].PrivateKey
	if privateKey.Encrypted {
		if passphrase == "" {
			return nil, errors.New("key is encrypted but no passphrase was given")
		}
		if err := privateKey.Decrypt([]byte(passphrase)); err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
	}

	key, ok := privateKey.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported key type %T (RSA required)", privateKey.PrivateKey)
	}
	return key, nil
}
