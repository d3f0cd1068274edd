package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Sealer encrypts persisted session entries with AES-256-GCM under a key
// derived from the seal key and the device key. It satisfies session.Sealer.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key once and prepares the cipher.
func NewSealer(sealKey, deviceKey []byte) (*Sealer, error) {
	aead, err := newAEAD(sealKey, deviceKey)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns base64(nonce + ciphertext + tag) so sealed entries stay printable on disk.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	raw, err := seal(s.aead, plaintext)
	if err != nil {
		return nil, err
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(raw, sealed)
	if err != nil {
		return nil, errors.Join(ErrInvalidCiphertext, err)
	}
	return open(s.aead, raw[:n])
}

func newAEAD(sealKey, deviceKey []byte) (cipher.AEAD, error) {
	if err := ValidateKeys(sealKey, deviceKey); err != nil {
		return nil, err
	}

	key, err := deriveKey(sealKey, deviceKey)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return aead, nil
}

func seal(aead cipher.AEAD, data []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return aead.Seal(nonce, nonce, data, nil), nil
}

func open(aead cipher.AEAD, ciphertext []byte) ([]byte, error) {
	nonceSize := aead.NonceSize()
	if len(ciphertext) < nonceSize+aead.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
