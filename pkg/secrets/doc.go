// Package secrets seals persisted session entries at rest.
//
// The sealing key is derived with HKDF-SHA256 from two 32-byte secrets: a
// seal key shared by the installation and a device key specific to the
// machine. Payloads are encrypted with AES-256-GCM using a random nonce that
// is prepended to the ciphertext.
//
// Sealer implements session.Sealer and base64-encodes its output:
//
//	sealKey, _ := secrets.ParseKey(cfg.SealKey)
//	deviceKey, _ := secrets.ParseKey(cfg.DeviceKey)
//	sealer, err := secrets.NewSealer(sealKey, deviceKey)
//	if err != nil {
//	    return err
//	}
//	persistence := session.New(storage, session.WithSealer(sealer))
//
// A snapshot sealed with different keys fails to open, which the session
// layer treats as an invalid snapshot and deletes.
package secrets
