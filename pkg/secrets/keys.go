package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required size for both the seal key and the device key
	KeySize = 32

	// saltInfo separates session sealing keys from any other HKDF use of the same secrets
	saltInfo = "danmaku-webclient-session-v1"
)

// ValidateKeys checks that both keys are KeySize bytes long.
func ValidateKeys(sealKey, deviceKey []byte) error {
	validSeal := len(sealKey) == KeySize
	validDevice := len(deviceKey) == KeySize

	if !validSeal {
		return ErrInvalidSealKey
	}
	if !validDevice {
		return ErrInvalidDeviceKey
	}
	return nil
}

// ParseKey decodes a hex-encoded key of KeySize bytes.
func ParseKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyEncoding, err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKeyEncoding
	}
	return key, nil
}

// deriveKey mixes the seal key with the device key using HKDF-SHA256.
// Callers zero the result with clearBytes once it is no longer needed.
func deriveKey(sealKey, deviceKey []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, sealKey, deviceKey, []byte(saltInfo))

	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return derived, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey creates a new random 32-byte key suitable for encryption
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
