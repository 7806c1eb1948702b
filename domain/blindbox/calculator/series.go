package calculator

import (
	"bytes"

	"github.com/kaspanet/cinnabar/domain/contracts/alwayssuccess"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
)

// Series is a collection the boxes of a purchase are opened into. Its type
// script marks the cells minted when a box is opened.
type Series struct {
	Name       string
	TypeScript *externalapi.Script
}

// TypeHash returns the hash blind box args record for the series
func (s *Series) TypeHash() externalapi.DomainHash {
	return cellhashing.ScriptHash(s.TypeScript)
}

func alwaysSuccessSeries(name string, fill byte) *Series {
	return &Series{
		Name: name,
		TypeScript: &externalapi.Script{
			CodeHash: alwayssuccess.Contract.DataHash(),
			HashType: externalapi.HashTypeData1,
			Args:     bytes.Repeat([]byte{fill}, externalapi.DomainHashSize),
		},
	}
}

// WhitelistSeries returns the series reserved for whitelisted buyers
func WhitelistSeries() *Series {
	return alwaysSuccessSeries("whitelist", 0)
}

// PublicSeries returns the series open to everyone
func PublicSeries() *Series {
	return alwaysSuccessSeries("public", 1)
}
