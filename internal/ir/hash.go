package ir

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed leaf nodes.
// Version suffix enables future algorithm migration.
const (
	DomainCode = "rt2n4j/code/v1"
	DomainData = "rt2n4j/data/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func contentDigest(domain string, typeID Rui, content string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"type":    RuiString(typeID),
		"content": content,
	})
	if err != nil {
		return "", fmt.Errorf("%s digest: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// CodeDigest keys a shared code node by code system and code.
// Equal (typeID, code) pairs always produce the same digest.
func CodeDigest(typeID Rui, code string) (string, error) {
	return contentDigest(DomainCode, typeID, code)
}

// DataDigest keys a shared data node by data type and payload.
func DataDigest(typeID Rui, data []byte) (string, error) {
	return contentDigest(DomainData, typeID, base64.StdEncoding.EncodeToString(data))
}
