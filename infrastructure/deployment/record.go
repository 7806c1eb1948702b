package deployment

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// Operations a record can describe
const (
	OperationDeploy  = "deploy"
	OperationMigrate = "migrate"
	OperationConsume = "consume"
)

// Record describes one transaction in the lineage of a contract cell
type Record struct {
	Name             string  `json:"name"`
	Date             string  `json:"date"`
	Operation        string  `json:"operation"`
	Version          string  `json:"version"`
	TxHash           string  `json:"tx_hash"`
	OutIndex         uint32  `json:"out_index"`
	DataHash         *string `json:"data_hash"`
	OccupiedCapacity uint64  `json:"occupied_capacity"`
	PayerAddress     string  `json:"payer_address"`
	OwnerAddress     *string `json:"owner_address"`
	TypeID           *string `json:"type_id"`

	// Comment is never written by cinnabar. Users may add it by hand.
	Comment *string `json:"comment,omitempty"`
}

// ContractOwnerAddress returns the owner of the contract cell, which is the
// payer unless an owner was given
func (r *Record) ContractOwnerAddress() string {
	if r.OwnerAddress != nil {
		return *r.OwnerAddress
	}
	return r.PayerAddress
}

// IsConsumed returns whether the record ends its contract's lineage
func (r *Record) IsConsumed() bool {
	return r.Operation == OperationConsume
}

// OutPoint returns the contract cell the record points at
func (r *Record) OutPoint() (externalapi.OutPoint, error) {
	txHash, err := externalapi.NewDomainHashFromString(r.TxHash)
	if err != nil {
		return externalapi.OutPoint{}, errors.Wrapf(err, "record %s %s", r.Name, r.Version)
	}
	return externalapi.OutPoint{TxHash: txHash, Index: r.OutIndex}, nil
}

// StringPtr returns a pointer to s, or nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
