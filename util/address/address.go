/*
Package address encodes and decodes short-format bech32 addresses.

A short address carries the blake160 args of a secp256k1 sighash-all lock:

	payload = 0x01 || code hash index (0x00) || args (20 bytes)

Full-format addresses, which embed an arbitrary code hash, are not supported.
*/
package address

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/pkg/errors"
)

const (
	formatTypeShort        = 0x01
	codeHashIndexSecp256k1 = 0x00
	shortPayloadSize       = 2 + cellhashing.Blake160Size
)

// ErrUnsupportedAddress is returned for well-formed addresses this package cannot represent
var ErrUnsupportedAddress = errors.New("unsupported address format")

// Address is a secp256k1 sighash-all lock bound to a network
type Address struct {
	params *netparams.Params
	args   []byte
}

// New returns the address of the secp256k1 lock with the given blake160 args
func New(params *netparams.Params, args []byte) (*Address, error) {
	if len(args) != cellhashing.Blake160Size {
		return nil, errors.Errorf("address args must be %d bytes, got %d", cellhashing.Blake160Size, len(args))
	}
	argsClone := make([]byte, len(args))
	copy(argsClone, args)
	return &Address{params: params, args: argsClone}, nil
}

// FromScript returns the address of lock, which must be a secp256k1 lock of params
func FromScript(params *netparams.Params, lock *externalapi.Script) (*Address, error) {
	if lock.CodeHash != params.Secp256k1CodeHash || lock.HashType != params.Secp256k1HashType {
		return nil, errors.Wrapf(ErrUnsupportedAddress, "lock %s is not a secp256k1 lock", lock)
	}
	return New(params, lock.Args)
}

// Decode parses encoded into an Address, checking it belongs to params
func Decode(params *netparams.Params, encoded string) (*Address, error) {
	prefix, data, err := bech32.Decode(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding address %s", encoded)
	}
	if prefix != params.AddressPrefix {
		return nil, errors.Errorf("address %s has prefix %s, %s network expects %s",
			encoded, prefix, params.Name, params.AddressPrefix)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding address %s", encoded)
	}
	if len(payload) == 0 || payload[0] != formatTypeShort {
		return nil, errors.Wrapf(ErrUnsupportedAddress, "address %s", encoded)
	}
	if len(payload) != shortPayloadSize || payload[1] != codeHashIndexSecp256k1 {
		return nil, errors.Wrapf(ErrUnsupportedAddress, "short address %s with code hash index or length mismatch", encoded)
	}
	return New(params, payload[2:])
}

// String returns the bech32 encoding of the address
func (a *Address) String() string {
	payload := make([]byte, 0, shortPayloadSize)
	payload = append(payload, formatTypeShort, codeHashIndexSecp256k1)
	payload = append(payload, a.args...)
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. converting 8 bit groups never fails"))
	}
	encoded, err := bech32.Encode(a.params.AddressPrefix, data)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. a short address is always encodable"))
	}
	return encoded
}

// Script returns the lock script of the address
func (a *Address) Script() *externalapi.Script {
	return a.params.Secp256k1Lock(a.args)
}

// Args returns a copy of the blake160 args
func (a *Address) Args() []byte {
	argsClone := make([]byte, len(a.args))
	copy(argsClone, a.args)
	return argsClone
}

// Params returns the network the address belongs to
func (a *Address) Params() *netparams.Params {
	return a.params
}
