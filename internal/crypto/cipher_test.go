package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestEncryptDecrypt(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
		key       []byte
		wantErr   bool
	}{
		{name: "short text", plaintext: []byte("hello"), key: testKey()},
		{name: "json payload", plaintext: []byte(`{"blood_type":"O+"}`), key: testKey()},
		{name: "empty plaintext", plaintext: nil, key: testKey(), wantErr: true},
		{name: "short key", plaintext: []byte("x"), key: []byte("short"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encrypt(tt.plaintext, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, enc, NonceSize+len(tt.plaintext)+16)

			dec, err := Decrypt(enc, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, dec)
		})
	}
}

func TestDecrypt_TamperedData(t *testing.T) {
	enc, err := Encrypt([]byte("secret"), testKey())
	require.NoError(t, err)

	enc[len(enc)-1] ^= 0xff
	_, err = Decrypt(enc, testKey())
	assert.Error(t, err)

	_, err = Decrypt([]byte("short"), testKey())
	assert.Error(t, err)
}

func TestEncrypt_Randomness(t *testing.T) {
	a, err := Encrypt([]byte("same"), testKey())
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), testKey())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer(t *testing.T) {
	_, err := NewSealer([]byte("bad"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	s, err := NewSealer(testKey())
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("token-value"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token-value")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token-value", string(opened))

	_, err = s.Open("!!!not-base64")
	assert.Error(t, err)
}
