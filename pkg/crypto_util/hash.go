package crypto_util

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"
)

// CalculateBlake3 计算输入的 Blake3 哈希值 (hex)
func CalculateBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprint hashes the JSON encoding of v. Struct fields encode in
// declaration order, so equal values give equal fingerprints.
func Fingerprint(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return CalculateBlake3(b), nil
}
