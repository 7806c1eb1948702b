// Package simplelock is a lock that only checks its args are long enough to hold a hash.
package simplelock

import (
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

// Name is the name of the simple-lock contract
const Name = "simple-lock"

// MinArgsLength is the shortest args the lock accepts
const MinArgsLength = 32

// ErrBadArgs is returned for args shorter than MinArgsLength
var ErrBadArgs = verifier.NewScriptError(verifier.CustomErrorStart, "BadArgs")

type lockContext struct {
	args []byte
}

func verifyArgs(env verifier.Environment, _ verifier.NodeID, ctx *lockContext) (verifier.NodeID, error) {
	script, err := env.LoadScript()
	if err != nil {
		return verifier.Accept, err
	}
	if len(script.Args) < MinArgsLength {
		return verifier.Accept, errors.Wrapf(ErrBadArgs, "args have %d bytes, need at least %d",
			len(script.Args), MinArgsLength)
	}
	ctx.args = script.Args
	return verifier.Accept, nil
}

var tree = verifier.MustNewTree(verifier.Node[lockContext]{
	ID:           verifier.Root,
	Name:         "verify-args",
	Verification: verifier.VerificationFunc[lockContext](verifyArgs),
})

// Contract is the simple-lock contract
var Contract = contracts.New(Name, tree)
