package deployer

import (
	"os"
	"path/filepath"

	"github.com/kaspanet/cinnabar/domain/contracts"
	"github.com/pkg/errors"
)

// DefaultBinaryDir is where contract binaries are built
const DefaultBinaryDir = "build/release"

// BinaryLoader returns the code of a contract by name
type BinaryLoader interface {
	LoadBinary(name string) ([]byte, error)
}

// DirectoryLoader reads contract binaries from a directory
type DirectoryLoader struct {
	Dir string
}

// LoadBinary implements BinaryLoader
func (l *DirectoryLoader) LoadBinary(name string) ([]byte, error) {
	path := filepath.Join(l.Dir, name)
	binary, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading the binary of contract %s", name)
	}
	return binary, nil
}

// RegistryLoader serves the binaries of registered contracts, which is what a
// simulated chain can execute
type RegistryLoader struct {
	Registry *contracts.Registry
}

// LoadBinary implements BinaryLoader
func (l *RegistryLoader) LoadBinary(name string) ([]byte, error) {
	contract, ok := l.Registry.ByName(name)
	if !ok {
		return nil, errors.Errorf("unknown contract %s, known contracts are %v", name, l.Registry.Names())
	}
	return contract.Binary, nil
}
