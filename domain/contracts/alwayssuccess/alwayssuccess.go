// Package alwayssuccess is a script that accepts every transaction. The simulator
// uses it as the lock of fake cells.
package alwayssuccess

import (
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/verifier"
)

// Name is the name of the always-success contract
const Name = "always-success"

var tree = verifier.MustNewTree(verifier.Node[struct{}]{
	ID:   verifier.Root,
	Name: "accept",
	Verification: verifier.VerificationFunc[struct{}](func(verifier.Environment, verifier.NodeID, *struct{}) (verifier.NodeID, error) {
		return verifier.Accept, nil
	}),
})

// Contract is the always-success contract
var Contract = contracts.New(Name, tree)
