package rpcclient

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// hexUint64 is a quantity encoded as 0x-prefixed hex
type hexUint64 string

func newHexUint64(value uint64) hexUint64 {
	return hexUint64("0x" + strconv.FormatUint(value, 16))
}

func (h hexUint64) uint64() (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimPrefix(string(h), "0x"), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed quantity %q", h)
	}
	return value, nil
}

// hexBytes is a byte string encoded as 0x-prefixed hex
type hexBytes string

func newHexBytes(value []byte) hexBytes {
	return hexBytes("0x" + hex.EncodeToString(value))
}

func (h hexBytes) bytes() ([]byte, error) {
	value, err := hex.DecodeString(strings.TrimPrefix(string(h), "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "malformed bytes %q", h)
	}
	return value, nil
}

func newHexHash(hash externalapi.DomainHash) hexBytes {
	return newHexBytes(hash[:])
}

func (h hexBytes) hash() (externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromString(string(h))
}

type jsonScript struct {
	CodeHash hexBytes `json:"code_hash"`
	HashType string   `json:"hash_type"`
	Args     hexBytes `json:"args"`
}

func toJSONScript(script *externalapi.Script) *jsonScript {
	if script == nil {
		return nil
	}
	return &jsonScript{
		CodeHash: newHexHash(script.CodeHash),
		HashType: script.HashType.String(),
		Args:     newHexBytes(script.Args),
	}
}

func (s *jsonScript) toScript() (*externalapi.Script, error) {
	if s == nil {
		return nil, nil
	}
	codeHash, err := s.CodeHash.hash()
	if err != nil {
		return nil, err
	}
	hashType, err := externalapi.ParseScriptHashType(s.HashType)
	if err != nil {
		return nil, err
	}
	args, err := s.Args.bytes()
	if err != nil {
		return nil, err
	}
	return &externalapi.Script{CodeHash: codeHash, HashType: hashType, Args: args}, nil
}

type jsonOutPoint struct {
	TxHash hexBytes  `json:"tx_hash"`
	Index  hexUint64 `json:"index"`
}

func toJSONOutPoint(outPoint externalapi.OutPoint) *jsonOutPoint {
	return &jsonOutPoint{TxHash: newHexHash(outPoint.TxHash), Index: newHexUint64(uint64(outPoint.Index))}
}

func (o *jsonOutPoint) toOutPoint() (externalapi.OutPoint, error) {
	txHash, err := o.TxHash.hash()
	if err != nil {
		return externalapi.OutPoint{}, err
	}
	index, err := o.Index.uint64()
	if err != nil {
		return externalapi.OutPoint{}, err
	}
	if index > uint64(^uint32(0)) {
		return externalapi.OutPoint{}, errors.Errorf("out point index %d overflows", index)
	}
	return externalapi.OutPoint{TxHash: txHash, Index: uint32(index)}, nil
}

type jsonCellOutput struct {
	Capacity hexUint64   `json:"capacity"`
	Lock     *jsonScript `json:"lock"`
	Type     *jsonScript `json:"type"`
}

func toJSONCellOutput(output *externalapi.CellOutput) *jsonCellOutput {
	return &jsonCellOutput{
		Capacity: newHexUint64(output.Capacity),
		Lock:     toJSONScript(output.Lock),
		Type:     toJSONScript(output.Type),
	}
}

func (o *jsonCellOutput) toCellOutput() (*externalapi.CellOutput, error) {
	cellCapacity, err := o.Capacity.uint64()
	if err != nil {
		return nil, err
	}
	if o.Lock == nil {
		return nil, errors.New("cell output without a lock")
	}
	lock, err := o.Lock.toScript()
	if err != nil {
		return nil, err
	}
	typeScript, err := o.Type.toScript()
	if err != nil {
		return nil, err
	}
	return &externalapi.CellOutput{Capacity: cellCapacity, Lock: lock, Type: typeScript}, nil
}

type jsonCellDep struct {
	OutPoint *jsonOutPoint `json:"out_point"`
	DepType  string        `json:"dep_type"`
}

type jsonCellInput struct {
	Since          hexUint64     `json:"since"`
	PreviousOutput *jsonOutPoint `json:"previous_output"`
}

type jsonTransaction struct {
	Version     hexUint64         `json:"version"`
	CellDeps    []*jsonCellDep    `json:"cell_deps"`
	HeaderDeps  []hexBytes        `json:"header_deps"`
	Inputs      []*jsonCellInput  `json:"inputs"`
	Outputs     []*jsonCellOutput `json:"outputs"`
	OutputsData []hexBytes        `json:"outputs_data"`
	Witnesses   []hexBytes        `json:"witnesses"`
}

func depTypeName(depType externalapi.DepType) string {
	if depType == externalapi.DepTypeDepGroup {
		return "dep_group"
	}
	return "code"
}

func toJSONTransaction(tx *externalapi.DomainTransaction) *jsonTransaction {
	jsonTx := &jsonTransaction{
		Version:     newHexUint64(uint64(tx.Version)),
		CellDeps:    make([]*jsonCellDep, len(tx.CellDeps)),
		HeaderDeps:  make([]hexBytes, len(tx.HeaderDeps)),
		Inputs:      make([]*jsonCellInput, len(tx.Inputs)),
		Outputs:     make([]*jsonCellOutput, len(tx.Outputs)),
		OutputsData: make([]hexBytes, len(tx.OutputsData)),
		Witnesses:   make([]hexBytes, len(tx.Witnesses)),
	}
	for i, cellDep := range tx.CellDeps {
		jsonTx.CellDeps[i] = &jsonCellDep{OutPoint: toJSONOutPoint(cellDep.OutPoint), DepType: depTypeName(cellDep.DepType)}
	}
	for i, headerDep := range tx.HeaderDeps {
		jsonTx.HeaderDeps[i] = newHexHash(headerDep)
	}
	for i, input := range tx.Inputs {
		jsonTx.Inputs[i] = &jsonCellInput{Since: newHexUint64(input.Since), PreviousOutput: toJSONOutPoint(input.PreviousOutput)}
	}
	for i, output := range tx.Outputs {
		jsonTx.Outputs[i] = toJSONCellOutput(output)
	}
	for i, data := range tx.OutputsData {
		jsonTx.OutputsData[i] = newHexBytes(data)
	}
	for i, witness := range tx.Witnesses {
		jsonTx.Witnesses[i] = newHexBytes(witness)
	}
	return jsonTx
}
