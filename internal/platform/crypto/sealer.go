package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedVersion prefixes every sealed payload so the format can change
// without guessing.
const sealedVersion byte = 1

var (
	ErrNotConfigured = errors.New("encryption key is not configured")
	ErrMalformed     = errors.New("sealed payload is malformed")
)

// Sealer encrypts workspace backups with AES-256-GCM. A Sealer built from
// an empty key is valid but unconfigured and passes data through.
type Sealer struct {
	aead cipher.AEAD
}

func New(key string) (*Sealer, error) {
	if key == "" {
		return &Sealer{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding, got %d", len(decoded))
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Sealer) Encrypt(plain []byte) ([]byte, error) {
	if !s.Configured() {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, sealedVersion)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, []byte{sealedVersion}), nil
}

func (s *Sealer) Decrypt(sealed []byte) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	size := s.aead.NonceSize()
	if len(sealed) < 1+size || sealed[0] != sealedVersion {
		return nil, ErrMalformed
	}
	nonce := sealed[1 : 1+size]
	plain, err := s.aead.Open(nil, nonce, sealed[1+size:], []byte{sealedVersion})
	if err != nil {
		return nil, fmt.Errorf("open sealed payload: %w", err)
	}
	return plain, nil
}

// decodeKey accepts hex, padded or raw base64, or the raw key bytes.
func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
