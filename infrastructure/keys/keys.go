// Package keys holds the secp256k1 key pairs that sign lock groups.
//
// Signatures are Schnorr signatures over the sighash-all message followed by
// a single sighash type byte, 65 bytes in total. The lock args of a key pair
// are the blake160 of its x-only public key.
package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/kaspanet/cinnabar/domain/calculator/operation"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/netparams"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/util/address"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// SigHashAll is the only sighash type this package produces
const SigHashAll byte = 0x01

// SignatureSize is the size of a serialized signature including its sighash type
const SignatureSize = secp256k1.SerializedSchnorrSignatureSize + 1

// PublicKeySize is the size of a serialized x-only public key
const PublicKeySize = 32

// ErrBadSignature is returned by Verify for signatures that don't match
var ErrBadSignature = errors.New("bad signature")

// ErrInvalidMnemonic is returned for mnemonics that fail the bip39 checksum
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// KeyPair is a secp256k1 key pair bound to a network
type KeyPair struct {
	params    *netparams.Params
	keyPair   *secp256k1.SchnorrKeyPair
	publicKey []byte
	lockArgs  []byte
}

var _ operation.Signer = (*KeyPair)(nil)

// NewKeyPair deserializes a 32 byte private key
func NewKeyPair(params *netparams.Params, privateKey []byte) (*KeyPair, error) {
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &KeyPair{
		params:    params,
		keyPair:   keyPair,
		publicKey: serializedPublicKey[:],
		lockArgs:  cellhashing.Blake160(serializedPublicKey[:]),
	}, nil
}

// ParsePrivateKey parses a hex encoded private key, with or without a 0x prefix
func ParsePrivateKey(params *netparams.Params, privateKeyHex string) (*KeyPair, error) {
	privateKey, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "private key is not hex")
	}
	return NewKeyPair(params, privateKey)
}

// GenerateKeyPair creates a random key pair
func GenerateKeyPair(params *netparams.Params) (*KeyPair, error) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewKeyPair(params, keyPair.SerializePrivateKey()[:])
}

// CreateMnemonic creates a new 24 word mnemonic
func CreateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return bip39.NewMnemonic(entropy)
}

// NewKeyPairFromMnemonic derives the bip32 master key of mnemonic and password
func NewKeyPairFromMnemonic(params *netparams.Params, mnemonic string, password string) (*KeyPair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.WithStack(ErrInvalidMnemonic)
	}
	seed := bip39.NewSeed(mnemonic, password)

	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	masterKey := mac.Sum(nil)
	return NewKeyPair(params, masterKey[:32])
}

// PrivateKey returns the serialized private key
func (k *KeyPair) PrivateKey() []byte {
	return k.keyPair.SerializePrivateKey()[:]
}

// PublicKey returns the serialized x-only public key
func (k *KeyPair) PublicKey() []byte {
	return k.publicKey
}

// LockArgs returns the blake160 of the public key
func (k *KeyPair) LockArgs() []byte {
	return k.lockArgs
}

// Lock returns the default lock of the key pair on its network
func (k *KeyPair) Lock() *externalapi.Script {
	return k.params.Secp256k1Lock(k.lockArgs)
}

// Address returns the short address of Lock
func (k *KeyPair) Address() (*address.Address, error) {
	return address.New(k.params, k.lockArgs)
}

// OwnsLock implements operation.Signer
func (k *KeyPair) OwnsLock(lock *externalapi.Script) bool {
	return lock.Equal(k.Lock())
}

// SignatureSize implements operation.Signer
func (k *KeyPair) SignatureSize() int {
	return SignatureSize
}

// Sign implements operation.Signer
func (k *KeyPair) Sign(message externalapi.DomainHash) ([]byte, error) {
	secpHash := secp256k1.Hash(message)
	signature, err := k.keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return nil, errors.Errorf("cannot sign message %s: %s", message, err)
	}
	log.Tracef("Signed %s with %x", message, k.lockArgs)
	return append(signature.Serialize()[:], SigHashAll), nil
}

// Verify checks a signature produced by Sign against a serialized public key
func Verify(publicKey []byte, message externalapi.DomainHash, signature []byte) error {
	if len(signature) != SignatureSize {
		return errors.Wrapf(ErrBadSignature, "signature has %d bytes, expected %d", len(signature), SignatureSize)
	}
	if signature[SignatureSize-1] != SigHashAll {
		return errors.Wrapf(ErrBadSignature, "unsupported sighash type %d", signature[SignatureSize-1])
	}
	schnorrPublicKey, err := secp256k1.DeserializeSchnorrPubKey(publicKey)
	if err != nil {
		return errors.Wrap(err, "invalid public key")
	}
	schnorrSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature[:SignatureSize-1])
	if err != nil {
		return errors.Wrap(ErrBadSignature, err.Error())
	}
	secpHash := secp256k1.Hash(message)
	if !schnorrPublicKey.SchnorrVerify(&secpHash, schnorrSignature) {
		return errors.Wrapf(ErrBadSignature, "signature doesn't match message %s", message)
	}
	return nil
}
