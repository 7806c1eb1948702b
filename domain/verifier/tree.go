package verifier

import (
	"fmt"
	"math"

	"github.com/kaspanet/cinnabar/infrastructure/logger"
	"github.com/pkg/errors"
)

// NodeID identifies a node of a verification tree
type NodeID uint8

const (
	// Root is the node every run starts at
	Root NodeID = 0

	// Accept is returned by a node to end the run successfully
	Accept NodeID = math.MaxUint8
)

// Verification is one step of a verification tree. It reads the environment,
// updates the shared context and returns the next node to run, or Accept.
type Verification[C any] interface {
	Verify(env Environment, id NodeID, ctx *C) (NodeID, error)
}

// VerificationFunc is an adapter to allow the use of ordinary functions as Verifications
type VerificationFunc[C any] func(env Environment, id NodeID, ctx *C) (NodeID, error)

// Verify calls f(env, id, ctx)
func (f VerificationFunc[C]) Verify(env Environment, id NodeID, ctx *C) (NodeID, error) {
	return f(env, id, ctx)
}

// Node registers a Verification under an id
type Node[C any] struct {
	ID           NodeID
	Name         string
	Verification Verification[C]
}

// Tree dispatches a verification run over a fixed table of nodes.
// Every run gets a fresh zero-valued context of type C.
type Tree[C any] struct {
	nodes [math.MaxUint8]*Node[C]
}

// NewTree builds a tree out of nodes. The root must be present, Accept cannot be
// registered, and no id may be registered twice.
func NewTree[C any](nodes ...Node[C]) (*Tree[C], error) {
	tree := &Tree[C]{}
	for i := range nodes {
		node := nodes[i]
		if node.ID == Accept {
			return nil, errors.Wrapf(errInvalidNodeID, "node %q uses the reserved accept id", node.Name)
		}
		if node.Verification == nil {
			return nil, errors.Wrapf(errInvalidNodeID, "node %q has no verification", node.Name)
		}
		if existing := tree.nodes[node.ID]; existing != nil {
			return nil, errors.Wrapf(errDuplicateNodeID, "nodes %q and %q share id %d",
				existing.Name, node.Name, node.ID)
		}
		tree.nodes[node.ID] = &node
	}
	if tree.nodes[Root] == nil {
		return nil, ErrTreeRootMissing
	}
	return tree, nil
}

// MustNewTree is like NewTree but panics on error. It is meant for trees defined
// at package level.
func MustNewTree[C any](nodes ...Node[C]) *Tree[C] {
	tree, err := NewTree(nodes...)
	if err != nil {
		panic(err)
	}
	return tree
}

// Run executes the tree from Root until a node returns Accept or fails.
// A transition to an unregistered id fails with ErrUnknownNode.
func (t *Tree[C]) Run(env Environment) error {
	ctx := new(C)
	id := Root
	for {
		if id == Accept {
			return nil
		}
		node := t.nodes[id]
		if node == nil {
			return errors.Wrapf(ErrUnknownNode, "node %d", id)
		}
		err := env.Charge(NodeCycles)
		if err != nil {
			return err
		}

		log.Tracef("%s", logger.NewLogClosure(func() string {
			return fmt.Sprintf("verifying node %d (%s)", node.ID, node.Name)
		}))
		next, err := node.Verification.Verify(env, id, ctx)
		if err != nil {
			log.Debugf("Node %d (%s) rejected: %s", node.ID, node.Name, err)
			return err
		}
		id = next
	}
}
