// Package blindboxargs encodes the type script args of a blind box purchase cell:
//
//	[series type hash: 32][purchase count: 1][price: 8, little endian][buyer lock: serialized script]
//
// The same layout is written when purchasing and read back when opening.
package blindboxargs

import (
	"encoding/binary"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/serialization"
	"github.com/pkg/errors"
)

// Field offsets
const (
	PurchaseCountOffset = externalapi.DomainHashSize
	PriceOffset         = PurchaseCountOffset + 1
	BuyerOffset         = PriceOffset + 8
)

// ErrBadArgs is returned when args do not follow the blind box layout
var ErrBadArgs = errors.New("bad blind box args")

// Args are the decoded type script args of a purchase cell
type Args struct {
	SeriesTypeHash externalapi.DomainHash
	PurchaseCount  uint8
	Price          uint64
	Buyer          *externalapi.Script
}

// Encode serializes the args
func (a *Args) Encode() []byte {
	buyer := serialization.SerializeScript(a.Buyer)
	encoded := make([]byte, BuyerOffset, BuyerOffset+len(buyer))
	copy(encoded, a.SeriesTypeHash[:])
	encoded[PurchaseCountOffset] = a.PurchaseCount
	binary.LittleEndian.PutUint64(encoded[PriceOffset:BuyerOffset], a.Price)
	return append(encoded, buyer...)
}

// TotalPrice returns Price times PurchaseCount, and false if the product overflows
func (a *Args) TotalPrice() (uint64, bool) {
	count := uint64(a.PurchaseCount)
	if count != 0 && a.Price > ^uint64(0)/count {
		return 0, false
	}
	return a.Price * count, true
}

// Decode parses args
func Decode(args []byte) (*Args, error) {
	if len(args) < BuyerOffset {
		return nil, errors.Wrapf(ErrBadArgs, "args have %d bytes, the fixed fields need %d", len(args), BuyerOffset)
	}
	buyer, err := serialization.DeserializeScript(args[BuyerOffset:])
	if err != nil {
		return nil, errors.Wrapf(ErrBadArgs, "buyer lock: %s", err)
	}
	seriesTypeHash, err := externalapi.NewDomainHashFromByteSlice(args[:PurchaseCountOffset])
	if err != nil {
		return nil, errors.Wrapf(ErrBadArgs, "series type hash: %s", err)
	}
	return &Args{
		SeriesTypeHash: seriesTypeHash,
		PurchaseCount:  args[PurchaseCountOffset],
		Price:          binary.LittleEndian.Uint64(args[PriceOffset:BuyerOffset]),
		Buyer:          buyer,
	}, nil
}
