// Package contracts holds the scripts cinnabar can deploy and simulate.
//
// A contract is a verifier.Program. Its on-chain binary is a short tag derived
// from its name; the simulator finds the program of a script by hashing the data
// of the cell dep the script points at.
package contracts

import (
	"sort"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

const binaryTagPrefix = "cinnabar-contract:"

// Contract couples a program with the binary deployed for it
type Contract struct {
	Name    string
	Binary  []byte
	Program verifier.Program
}

// New returns the contract called name running program
func New(name string, program verifier.Program) *Contract {
	return &Contract{
		Name:    name,
		Binary:  []byte(binaryTagPrefix + name),
		Program: program,
	}
}

// DataHash returns the hash of the contract binary, which is the code hash of
// scripts referencing it by data
func (c *Contract) DataHash() externalapi.DomainHash {
	return cellhashing.Hash(c.Binary)
}

// Registry indexes contracts by name and by binary hash
type Registry struct {
	byName     map[string]*Contract
	byDataHash map[externalapi.DomainHash]*Contract
}

// NewRegistry returns a registry holding contracts
func NewRegistry(contracts ...*Contract) (*Registry, error) {
	registry := &Registry{
		byName:     make(map[string]*Contract),
		byDataHash: make(map[externalapi.DomainHash]*Contract),
	}
	for _, contract := range contracts {
		if _, exists := registry.byName[contract.Name]; exists {
			return nil, errors.Errorf("contract %s registered twice", contract.Name)
		}
		registry.byName[contract.Name] = contract
		registry.byDataHash[contract.DataHash()] = contract
	}
	return registry, nil
}

// ByName returns the contract called name
func (r *Registry) ByName(name string) (*Contract, bool) {
	contract, ok := r.byName[name]
	return contract, ok
}

// ByBinary returns the contract whose binary is binary
func (r *Registry) ByBinary(binary []byte) (*Contract, bool) {
	contract, ok := r.byDataHash[cellhashing.Hash(binary)]
	return contract, ok
}

// Names returns the sorted names of the registered contracts
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
