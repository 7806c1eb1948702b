package fakerpc

import (
	"bytes"
	"encoding/hex"
	"os"
	"strings"

	"github.com/kaspanet/cinnabar/domain/calculator/rpc"
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fixture is a set of live cells described in YAML:
//
//	cells:
//	  - tx_hash: 0x5a3c...
//	    index: 0
//	    capacity: 100000000000
//	    lock: {code_hash: 0x9bd7..., hash_type: type, args: 0x36c3...}
//	    data: 0x
type Fixture struct {
	Cells []FixtureCell `yaml:"cells"`
}

// FixtureCell is a single live cell of a Fixture
type FixtureCell struct {
	TxHash   string         `yaml:"tx_hash"`
	Index    uint32         `yaml:"index"`
	Capacity uint64         `yaml:"capacity"`
	Lock     FixtureScript  `yaml:"lock"`
	Type     *FixtureScript `yaml:"type,omitempty"`
	Data     string         `yaml:"data,omitempty"`
}

// FixtureScript is a script of a FixtureCell
type FixtureScript struct {
	CodeHash string `yaml:"code_hash"`
	HashType string `yaml:"hash_type"`
	Args     string `yaml:"args"`
}

// ParseFixture decodes a YAML fixture. Unknown fields are rejected.
func ParseFixture(content []byte) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	err := decoder.Decode(&fixture)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse fixture")
	}
	return &fixture, nil
}

// LoadFixture reads and decodes the YAML fixture at path
func LoadFixture(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseFixture(content)
}

// WithFixture adds the cells of fixture to the live cell set
func WithFixture(fixture *Fixture) Option {
	return func(client *Client) error {
		cells, err := fixture.LiveCells()
		if err != nil {
			return err
		}
		return WithCells(cells...)(client)
	}
}

// WithFixtureFile adds the cells of the YAML fixture at path to the live cell set
func WithFixtureFile(path string) Option {
	return func(client *Client) error {
		fixture, err := LoadFixture(path)
		if err != nil {
			return err
		}
		return WithFixture(fixture)(client)
	}
}

// LiveCells converts the fixture into live cells
func (f *Fixture) LiveCells() ([]*rpc.Cell, error) {
	cells := make([]*rpc.Cell, len(f.Cells))
	for i, fixtureCell := range f.Cells {
		cell, err := fixtureCell.liveCell()
		if err != nil {
			return nil, errors.Wrapf(err, "fixture cell %d", i)
		}
		cells[i] = cell
	}
	return cells, nil
}

func (c *FixtureCell) liveCell() (*rpc.Cell, error) {
	txHash, err := externalapi.NewDomainHashFromString(c.TxHash)
	if err != nil {
		return nil, err
	}
	lock, err := c.Lock.script()
	if err != nil {
		return nil, errors.Wrap(err, "lock")
	}
	output := &externalapi.CellOutput{Capacity: c.Capacity, Lock: lock}
	if c.Type != nil {
		output.Type, err = c.Type.script()
		if err != nil {
			return nil, errors.Wrap(err, "type")
		}
	}
	data, err := decodeHex(c.Data)
	if err != nil {
		return nil, errors.Wrap(err, "data")
	}
	return &rpc.Cell{
		OutPoint: externalapi.OutPoint{TxHash: txHash, Index: c.Index},
		Output:   output,
		Data:     data,
	}, nil
}

func (s *FixtureScript) script() (*externalapi.Script, error) {
	codeHash, err := externalapi.NewDomainHashFromString(s.CodeHash)
	if err != nil {
		return nil, err
	}
	hashType, err := externalapi.ParseScriptHashType(s.HashType)
	if err != nil {
		return nil, err
	}
	args, err := decodeHex(s.Args)
	if err != nil {
		return nil, errors.Wrap(err, "args")
	}
	return &externalapi.Script{CodeHash: codeHash, HashType: hashType, Args: args}, nil
}

func decodeHex(value string) ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return decoded, nil
}
