package cip33

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamp-core/pkg/wallet/types"
)

func randomHex(t *testing.T, n int) string {
	t.Helper()
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return hex.EncodeToString(buf)
}

func TestRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 32, 33, 64, 1000} {
		for _, network := range []types.Network{types.Mainnet, types.Testnet} {
			file := randomHex(t, size)

			addresses, err := Encode(file, network)
			require.NoError(t, err)
			assert.Len(t, addresses, ChunkCount(size))

			got, err := Decode(addresses)
			require.NoError(t, err)
			assert.Equal(t, file, got, "size %d on %s", size, network)
		}
	}
}

func TestSeventyByteFile(t *testing.T) {
	file := randomHex(t, 70)

	addresses, err := Encode(file, types.Mainnet)
	require.NoError(t, err)
	require.Len(t, addresses, 3)
	for _, a := range addresses {
		assert.Regexp(t, "^bc1q", a)
	}

	got, err := Decode(addresses)
	require.NoError(t, err)
	assert.Equal(t, file, got)
}

func TestEmptyFileStillProducesAnAddress(t *testing.T) {
	addresses, err := Encode("", types.Testnet)
	require.NoError(t, err)
	require.Len(t, addresses, 1)

	got, err := Decode(addresses)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestOrderMatters(t *testing.T) {
	file := randomHex(t, 100)
	addresses, err := Encode(file, types.Mainnet)
	require.NoError(t, err)
	require.Len(t, addresses, 4)

	swapped := append([]string{}, addresses...)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	got, err := Decode(swapped)
	require.NoError(t, err)
	assert.NotEqual(t, file, got)
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, 1}, {30, 1}, {31, 2}, {62, 2}, {63, 3}, {70, 3}, {1000, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChunkCount(tt.size), "size %d", tt.size)
	}
}

func TestErrors(t *testing.T) {
	_, err := Encode("xyz", types.Mainnet)
	assert.Error(t, err)

	_, err = Encode(randomHex(t, MaxFileSize+1), types.Mainnet)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrNoAddresses)

	// 只保留第一个地址，长度头大于剩余数据
	addresses, err := Encode(randomHex(t, 100), types.Mainnet)
	require.NoError(t, err)
	_, err = Decode(addresses[:1])
	assert.ErrorIs(t, err, ErrTruncatedPayload)
}
