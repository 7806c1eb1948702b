// Package contract is the blind box type script.
//
// The root node decodes the args and infers the operation from where the
// validated cell sits: only among outputs is a purchase, only among inputs is
// an open. Anything else is rejected.
package contract

import (
	"github.com/kaspanet/cinnabar/domain/blindbox/blindboxargs"
	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/kaspanet/cinnabar/domain/utils/cellhashing"
	"github.com/kaspanet/cinnabar/domain/verifier"
	"github.com/pkg/errors"
)

// Name is the name of the blind box type contract
const Name = "blind-box-type"

// Nodes of the blind box tree
const (
	EntryNode    = verifier.Root
	PurchaseNode = verifier.NodeID(1)
	OpenNode     = verifier.NodeID(2)
)

// Rejections
var (
	ErrBadArgs          = verifier.NewScriptError(verifier.CustomErrorStart, "BadArgs")
	ErrUnknownOperation = verifier.NewScriptError(verifier.CustomErrorStart+1, "UnknownOperation")
	ErrInsufficientPay  = verifier.NewScriptError(verifier.CustomErrorStart+2, "InsufficientPay")
	ErrNoPayerFound     = verifier.NewScriptError(verifier.CustomErrorStart+3, "NoPayerFound")
	ErrInsufficientOpen = verifier.NewScriptError(verifier.CustomErrorStart+4, "InsufficientOpen")
)

// Context is shared by the nodes of one run
type Context struct {
	Args *blindboxargs.Args
}

func hasCell(env verifier.Environment, source verifier.Source) (bool, error) {
	_, err := env.LoadCell(0, source)
	if errors.Is(err, verifier.ErrIndexOutOfBound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func entry(env verifier.Environment, id verifier.NodeID, ctx *Context) (verifier.NodeID, error) {
	log.Debugf("verifying entry")

	script, err := env.LoadScript()
	if err != nil {
		return verifier.Accept, err
	}
	args, err := blindboxargs.Decode(script.Args)
	if err != nil {
		return verifier.Accept, errors.Wrap(ErrBadArgs, err.Error())
	}
	ctx.Args = args

	inInput, err := hasCell(env, verifier.SourceGroupInput)
	if err != nil {
		return verifier.Accept, err
	}
	inOutput, err := hasCell(env, verifier.SourceGroupOutput)
	if err != nil {
		return verifier.Accept, err
	}

	switch {
	case !inInput && inOutput:
		return PurchaseNode, nil
	case inInput && !inOutput:
		return OpenNode, nil
	}
	return verifier.Accept, errors.Wrapf(ErrUnknownOperation,
		"blind box cell in inputs: %t, in outputs: %t", inInput, inOutput)
}

func purchase(env verifier.Environment, id verifier.NodeID, ctx *Context) (verifier.NodeID, error) {
	log.Debugf("verifying purchase")

	payment, err := env.LoadCellCapacity(0, verifier.SourceGroupOutput)
	if err != nil {
		return verifier.Accept, err
	}
	totalPrice, ok := ctx.Args.TotalPrice()
	if !ok || payment < totalPrice {
		return verifier.Accept, errors.Wrapf(ErrInsufficientPay,
			"paid %d, %d boxes at %d cost more", payment, ctx.Args.PurchaseCount, ctx.Args.Price)
	}

	payerFound := false
	err = verifier.QueryIter(env.LoadCellLock, verifier.SourceInput, func(_ int, lock *externalapi.Script) bool {
		payerFound = lock.Equal(ctx.Args.Buyer)
		return !payerFound
	})
	if err != nil {
		return verifier.Accept, err
	}
	if !payerFound {
		return verifier.Accept, errors.Wrapf(ErrNoPayerFound, "no input is locked by buyer %s", ctx.Args.Buyer)
	}
	return verifier.Accept, nil
}

func open(env verifier.Environment, id verifier.NodeID, ctx *Context) (verifier.NodeID, error) {
	log.Debugf("verifying open")

	count := 0
	err := verifier.QueryIter(env.LoadCell, verifier.SourceOutput, func(_ int, cell *externalapi.CellOutput) bool {
		if cell.Type != nil && cell.Lock.Equal(ctx.Args.Buyer) &&
			cellhashing.ScriptHash(cell.Type) == ctx.Args.SeriesTypeHash {
			count++
		}
		return true
	})
	if err != nil {
		return verifier.Accept, err
	}
	if count < int(ctx.Args.PurchaseCount) {
		return verifier.Accept, errors.Wrapf(ErrInsufficientOpen,
			"minted %d boxes of the series for the buyer, %d were purchased", count, ctx.Args.PurchaseCount)
	}
	return verifier.Accept, nil
}

// Tree is the blind box verification tree
var Tree = verifier.MustNewTree(
	verifier.Node[Context]{ID: EntryNode, Name: "entry", Verification: verifier.VerificationFunc[Context](entry)},
	verifier.Node[Context]{ID: PurchaseNode, Name: "purchase", Verification: verifier.VerificationFunc[Context](purchase)},
	verifier.Node[Context]{ID: OpenNode, Name: "open", Verification: verifier.VerificationFunc[Context](open)},
)

// Contract is the blind box type contract
var Contract = contracts.New(Name, Tree)
