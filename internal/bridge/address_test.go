package bridge

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDestinationAddress(t *testing.T) {
	tests := []struct {
		name    string
		chain   ChainID
		addr    []byte
		wantErr bool
	}{
		{name: "evm 20 bytes", chain: 1, addr: make([]byte, 20)},
		{name: "evm 19 bytes", chain: 1, addr: make([]byte, 19), wantErr: true},
		{name: "evm 21 bytes", chain: 1, addr: make([]byte, 21), wantErr: true},
		{name: "empty", chain: 137, addr: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDestinationAddress(tt.chain, tt.addr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddressEncoding)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseHexAddress(t *testing.T) {
	want := bytes.Repeat([]byte{0xab}, 20)

	got, err := ParseHexAddress("0xabababababababababababababababababababab")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("no prefix", func(t *testing.T) {
		got, err := ParseHexAddress("abababababababababababababababababababab")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		got, err := ParseHexAddress("  0xabababababababababababababababababababab ")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not hex", func(t *testing.T) {
		_, err := ParseHexAddress("0xzz")
		assert.ErrorIs(t, err, ErrInvalidAddressEncoding)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseHexAddress("0x")
		assert.ErrorIs(t, err, ErrInvalidAddressEncoding)
	})
}
