package utils

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DeriveAddress turns an ed25519 public key into a ledger address: the
// trailing 20 bytes of the sha3-256 key digest, hex encoded.
func DeriveAddress(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid public key length %d", len(pub))
	}
	sum := sha3.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[12:]), nil
}

// ServiceAddress derives a stable address for a ledger-internal service
// identity (marketplace custody, redemption authority). There is no key
// behind these addresses, so nothing can sign for them.
func ServiceAddress(name string) string {
	sum := sha3.Sum256([]byte("service:" + name))
	return "0x" + hex.EncodeToString(sum[12:])
}

// HashMessage is the digest customers sign for check-in.
func HashMessage(message []byte) []byte {
	sum := sha3.Sum256(message)
	return sum[:]
}
