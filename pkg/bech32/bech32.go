// Package bech32 maps 32-byte payloads to P2WSH witness addresses and back.
//
// Only witness version 0 with a 32-byte program is supported. Decode recovers
// the payload without checking the checksum; call Verify when the address
// comes from an untrusted source.
package bech32

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"stamp-core/pkg/wallet/types"
)

const (
	charset        = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	checksumLength = 6
	witnessVersion = 0

	// PayloadSize is the only program length the codec accepts.
	PayloadSize = 32
)

var ErrInvalidPayloadLength = errors.New("bech32: payload must be exactly 32 bytes")

// ChecksumOrAlphabetError reports an address that is not well formed bech32.
type ChecksumOrAlphabetError struct {
	Address string
	Pos     int // -1 when not tied to a character
	Reason  string
	Err     error
}

func (e *ChecksumOrAlphabetError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("bech32: %s at position %d in %q", e.Reason, e.Pos, e.Address)
	}
	if e.Err != nil {
		return fmt.Sprintf("bech32: %s in %q: %v", e.Reason, e.Address, e.Err)
	}
	return fmt.Sprintf("bech32: %s in %q", e.Reason, e.Address)
}

func (e *ChecksumOrAlphabetError) Unwrap() error { return e.Err }

// Encode turns a 64 hex char payload into a bc1q/tb1q address.
func Encode(payloadHex string, network types.Network) (string, error) {
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return "", fmt.Errorf("bech32: payload is not hex: %w", err)
	}
	if len(payload) != PayloadSize {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPayloadLength, len(payload))
	}

	groups, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("bech32: regroup payload: %w", err)
	}

	data := make([]byte, 0, len(groups)+1)
	data = append(data, witnessVersion)
	data = append(data, groups...)

	return bech32.Encode(network.HRP(), data)
}

// Decode returns the hex payload of a P2WSH address. Input is case-insensitive.
// The checksum characters are validated against the alphabet but not verified.
func Decode(address string) (string, error) {
	lower := strings.ToLower(address)

	sep := strings.LastIndexByte(lower, '1')
	if sep < 1 || sep+1+checksumLength >= len(lower) {
		return "", &ChecksumOrAlphabetError{Address: address, Pos: -1, Reason: "missing separator or data part"}
	}

	groups := make([]byte, 0, len(lower)-sep-1)
	for i := sep + 1; i < len(lower); i++ {
		idx := strings.IndexByte(charset, lower[i])
		if idx < 0 {
			return "", &ChecksumOrAlphabetError{Address: address, Pos: i, Reason: fmt.Sprintf("invalid character %q", address[i])}
		}
		groups = append(groups, byte(idx))
	}
	groups = groups[:len(groups)-checksumLength]

	if groups[0] != witnessVersion {
		return "", &ChecksumOrAlphabetError{Address: address, Pos: sep + 1, Reason: fmt.Sprintf("unsupported witness version %d", groups[0])}
	}

	program, err := bech32.ConvertBits(groups[1:], 5, 8, false)
	if err != nil {
		return "", &ChecksumOrAlphabetError{Address: address, Pos: -1, Reason: "invalid padding", Err: err}
	}
	if len(program) != PayloadSize {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPayloadLength, len(program))
	}

	return hex.EncodeToString(program), nil
}

// Verify checks the BIP-173 checksum and the human readable part.
func Verify(address string) error {
	hrp, _, err := bech32.Decode(address)
	if err != nil {
		return &ChecksumOrAlphabetError{Address: address, Pos: -1, Reason: "checksum verification failed", Err: err}
	}
	if hrp != types.Mainnet.HRP() && hrp != types.Testnet.HRP() {
		return &ChecksumOrAlphabetError{Address: address, Pos: -1, Reason: fmt.Sprintf("unknown prefix %q", hrp)}
	}
	return nil
}
