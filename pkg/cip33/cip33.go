// Package cip33 stores a file in an ordered list of P2WSH addresses.
//
// Layout: 2-byte big-endian length header, then the file bytes, cut into
// 32-byte chunks with the last chunk zero padded. Every chunk is one address.
package cip33

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"stamp-core/pkg/bech32"
	"stamp-core/pkg/wallet/types"
)

const (
	headerSize = 2
	chunkSize  = bech32.PayloadSize

	// MaxFileSize is the largest file the 2-byte header can describe.
	MaxFileSize = 0xFFFF
)

var (
	ErrFileTooLarge     = errors.New("cip33: file exceeds 65535 bytes")
	ErrTruncatedPayload = errors.New("cip33: length header exceeds decoded data")
	ErrNoAddresses      = errors.New("cip33: no addresses to decode")
)

// ChunkCount returns how many addresses a file of fileSize bytes needs.
func ChunkCount(fileSize int) int {
	if fileSize < 0 {
		fileSize = 0
	}
	return (fileSize + headerSize + chunkSize - 1) / chunkSize
}

// Encode returns the addresses carrying fileHex, in order.
func Encode(fileHex string, network types.Network) ([]string, error) {
	file, err := hex.DecodeString(strings.TrimPrefix(fileHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("cip33: file is not hex: %w", err)
	}
	if len(file) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(file))
	}

	n := ChunkCount(len(file))
	buf := make([]byte, n*chunkSize) // 尾部自动补零
	binary.BigEndian.PutUint16(buf, uint16(len(file)))
	copy(buf[headerSize:], file)

	addresses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		chunk := buf[i*chunkSize : (i+1)*chunkSize]
		addr, err := bech32.Encode(hex.EncodeToString(chunk), network)
		if err != nil {
			return nil, fmt.Errorf("cip33: chunk %d: %w", i, err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// Decode rebuilds the file hex from addresses. Order matters.
func Decode(addresses []string) (string, error) {
	if len(addresses) == 0 {
		return "", ErrNoAddresses
	}

	var sb strings.Builder
	sb.Grow(len(addresses) * chunkSize * 2)
	for i, addr := range addresses {
		chunk, err := bech32.Decode(addr)
		if err != nil {
			return "", fmt.Errorf("cip33: address %d: %w", i, err)
		}
		sb.WriteString(chunk)
	}

	data, err := hex.DecodeString(sb.String())
	if err != nil {
		return "", fmt.Errorf("cip33: %w", err)
	}

	size := int(binary.BigEndian.Uint16(data[:headerSize]))
	if headerSize+size > len(data) {
		return "", fmt.Errorf("%w: header says %d, have %d", ErrTruncatedPayload, size, len(data)-headerSize)
	}
	return hex.EncodeToString(data[headerSize : headerSize+size]), nil
}
