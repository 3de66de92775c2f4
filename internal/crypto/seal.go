package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrInvalidSeal = errors.New("invalid sealed value")

// Sealer encrypts and authenticates short values such as cookie contents.
type Sealer struct {
	key [32]byte
}

// NewSealer derives a secretbox key from secret. The purpose string separates
// keys derived from the same secret.
func NewSealer(secret, purpose string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("sealer: empty secret")
	}

	s := &Sealer{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("authportal/"+purpose))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return s, nil
}

// Seal returns value encrypted and encoded for use in a cookie.
func (s *Sealer) Seal(value string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Tampered or foreign values return ErrInvalidSeal.
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSeal
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidSeal
	}
	return string(plain), nil
}
