package secrets_test

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmaku-system/webclient/pkg/secrets"
	"github.com/danmaku-system/webclient/pkg/session"
)

var _ session.Sealer = (*secrets.Sealer)(nil)

func keys(t *testing.T) ([]byte, []byte) {
	t.Helper()
	sealKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	deviceKey, err := secrets.GenerateKey()
	require.NoError(t, err)
	return sealKey, deviceKey
}

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()
	sealKey, deviceKey := keys(t)

	sealer, err := secrets.NewSealer(sealKey, deviceKey)
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"user json", `{"id":1,"username":"alice","email":"alice@example.com"}`},
		{"unicode", "弹幕 ユーザー 🌍"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sealed, err := sealer.Seal([]byte(tt.plaintext))
			require.NoError(t, err)
			if tt.plaintext != "" {
				assert.NotContains(t, string(sealed), tt.plaintext)
			}

			opened, err := sealer.Open(sealed)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(opened))
		})
	}
}

func TestSealer_UniqueNonce(t *testing.T) {
	t.Parallel()
	sealKey, deviceKey := keys(t)

	sealer, err := secrets.NewSealer(sealKey, deviceKey)
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_TruncatedCiphertext(t *testing.T) {
	t.Parallel()
	sealKey, deviceKey := keys(t)

	sealer, err := secrets.NewSealer(sealKey, deviceKey)
	require.NoError(t, err)

	_, err = sealer.Open([]byte(base64.StdEncoding.EncodeToString([]byte("short"))))
	assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
}

func TestValidateKeys(t *testing.T) {
	t.Parallel()
	good := make([]byte, secrets.KeySize)

	assert.NoError(t, secrets.ValidateKeys(good, good))
	assert.ErrorIs(t, secrets.ValidateKeys(good[:16], good), secrets.ErrInvalidSealKey)
	assert.ErrorIs(t, secrets.ValidateKeys(good, nil), secrets.ErrInvalidDeviceKey)

	_, err := secrets.NewSealer(nil, good)
	assert.ErrorIs(t, err, secrets.ErrInvalidSealKey)
}

func TestParseKey(t *testing.T) {
	t.Parallel()
	key, _ := keys(t)

	parsed, err := secrets.ParseKey(" " + hex.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = secrets.ParseKey("zz")
	assert.ErrorIs(t, err, secrets.ErrInvalidKeyEncoding)

	_, err = secrets.ParseKey(strings.Repeat("ab", 16))
	assert.ErrorIs(t, err, secrets.ErrInvalidKeyEncoding)
}

func TestSealer(t *testing.T) {
	t.Parallel()
	sealKey, deviceKey := keys(t)

	sealer, err := secrets.NewSealer(sealKey, deviceKey)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte(`{"username":"alice"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "alice")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice"}`, string(opened))

	_, otherDevice := keys(t)
	other, err := secrets.NewSealer(sealKey, otherDevice)
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, secrets.ErrDecryptionFailed)

	_, err = sealer.Open([]byte("%%%"))
	assert.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
}
