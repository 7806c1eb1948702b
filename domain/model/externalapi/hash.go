package externalapi

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = 32

// DomainHash is the domain representation of a 32-byte hash
type DomainHash [DomainHashSize]byte

// NewDomainHashFromByteSlice copies hashBytes into a new DomainHash
func NewDomainHashFromByteSlice(hashBytes []byte) (DomainHash, error) {
	var hash DomainHash
	if len(hashBytes) != DomainHashSize {
		return hash, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	copy(hash[:], hashBytes)
	return hash, nil
}

// NewDomainHashFromString parses a hex encoded hash. A leading "0x" is allowed.
func NewDomainHashFromString(hashString string) (DomainHash, error) {
	hashString = strings.TrimPrefix(hashString, "0x")
	expectedLength := DomainHashSize * 2
	if len(hashString) != expectedLength {
		return DomainHash{}, errors.Errorf("hash string length is %d, while it should be be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return DomainHash{}, errors.WithStack(err)
	}
	return NewDomainHashFromByteSlice(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash DomainHash) String() string {
	return hex.EncodeToString(hash[:])
}

// ByteSlice returns a copy of the hash bytes
func (hash DomainHash) ByteSlice() []byte {
	clone := hash
	return clone[:]
}

// IsZero returns whether every byte of the hash is zero
func (hash DomainHash) IsZero() bool {
	return hash == DomainHash{}
}
