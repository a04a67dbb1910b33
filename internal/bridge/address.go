package bridge

import (
	"encoding/hex"
	"strings"
)

// AddressFamily selects the destination-address encoding for a chain.
// Supporting a new chain family means adding a variant here and a case in
// ValidateDestinationAddress, not subclassing anything.
type AddressFamily int

const (
	FamilyUnknown AddressFamily = iota
	FamilyEVM
)

const evmAddressLen = 20

// addressFamilyFor maps a destination chain to its address family. Every
// chain in this deployment is an account-based EVM chain.
func addressFamilyFor(ChainID) AddressFamily {
	return FamilyEVM
}

// ValidateDestinationAddress checks that addr matches the destination
// chain's address encoding.
func ValidateDestinationAddress(chain ChainID, addr []byte) error {
	switch addressFamilyFor(chain) {
	case FamilyEVM:
		if len(addr) != evmAddressLen {
			return ErrInvalidAddressEncoding
		}
		return nil
	default:
		return ErrInvalidAddressEncoding
	}
}

// ParseHexAddress decodes a 0x-prefixed hex address into raw bytes. Length
// is validated separately against the destination chain's family.
func ParseHexAddress(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidAddressEncoding
	}
	return raw, nil
}
