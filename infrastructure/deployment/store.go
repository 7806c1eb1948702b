// Package deployment keeps the history of deployed contract cells, one JSON
// file per network and contract.
package deployment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultRoot is where records are kept, relative to the working directory
const DefaultRoot = "migration"

// ErrNoRecord is returned when a contract has no record on a network
var ErrNoRecord = errors.New("no deployment record")

// ListMode selects which contracts List returns
type ListMode int

// List modes
const (
	ListAll ListMode = iota
	ListDeployed
	ListConsumed
)

// ParseListMode parses "all", "deployed" or "consumed"
func ParseListMode(mode string) (ListMode, error) {
	switch mode {
	case "all":
		return ListAll, nil
	case "deployed":
		return ListDeployed, nil
	case "consumed":
		return ListConsumed, nil
	}
	return 0, errors.Errorf("invalid list mode %q", mode)
}

// Store reads and appends records under Root
type Store struct {
	Root string
}

// NewStore returns a store keeping records under root
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Path returns the file holding the records of a contract
func (s *Store) Path(network, name string) string {
	return filepath.Join(s.Root, network, name+".json")
}

// All returns every record of a contract, oldest first
func (s *Store) All(network, name string) ([]*Record, error) {
	content, err := os.ReadFile(s.Path(network, name))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoRecord, "contract %s on %s", name, network)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var records []*Record
	err = json.Unmarshal(content, &records)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed records in %s", s.Path(network, name))
	}
	return records, nil
}

// Latest returns the last record of a contract
func (s *Store) Latest(network, name string) (*Record, error) {
	records, err := s.All(network, name)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(ErrNoRecord, "contract %s on %s has an empty history", name, network)
	}
	return records[len(records)-1], nil
}

// Find returns the most recent record of a contract with the given version.
// An empty version returns the latest record.
func (s *Store) Find(network, name, version string) (*Record, error) {
	if version == "" {
		return s.Latest(network, name)
	}
	records, err := s.All(network, name)
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Version == version {
			return records[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNoRecord, "contract %s on %s has no version %s", name, network, version)
}

// Append adds record at the end of its contract's history
func (s *Store) Append(network string, record *Record) error {
	records, err := s.All(network, record.Name)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return err
	}
	records = append(records, record)

	path := s.Path(network, record.Name)
	err = os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return errors.WithStack(err)
	}
	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.WriteFile(path, content, 0600)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Infof("Recorded %s of %s %s at %s", record.Operation, record.Name, record.Version, path)
	return nil
}

// List returns the latest record of every contract on network, sorted by name
func (s *Store) List(network string, mode ListMode) ([]*Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, network))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)

	var records []*Record
	for _, name := range names {
		record, err := s.Latest(network, name)
		if errors.Is(err, ErrNoRecord) {
			continue
		}
		if err != nil {
			return nil, err
		}
		switch {
		case mode == ListDeployed && record.IsConsumed():
			continue
		case mode == ListConsumed && !record.IsConsumed():
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
