package secrets

import "errors"

var (
	ErrInvalidSealKey     = errors.New("secrets.invalid_seal_key")
	ErrInvalidDeviceKey   = errors.New("secrets.invalid_device_key")
	ErrInvalidKeyEncoding = errors.New("secrets.invalid_key_encoding")

	ErrEncryptionFailed  = errors.New("secrets.encryption_failed")
	ErrDecryptionFailed  = errors.New("secrets.decryption_failed")
	ErrInvalidCiphertext = errors.New("secrets.invalid_ciphertext")

	ErrKeyDerivationFailed = errors.New("secrets.key_derivation_failed")
)
