package serialization

import (
	"encoding/binary"

	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// Sizes of the fixed-size structs
const (
	OutPointSize  = externalapi.DomainHashSize + 4
	CellInputSize = 8 + OutPointSize
	CellDepSize   = OutPointSize + 1
)

// SerializeOutPoint encodes outPoint as a 36-byte struct
func SerializeOutPoint(outPoint externalapi.OutPoint) []byte {
	buf := make([]byte, 0, OutPointSize)
	buf = append(buf, outPoint.TxHash[:]...)
	return putUint32(buf, outPoint.Index)
}

// DeserializeOutPoint decodes a 36-byte OutPoint struct
func DeserializeOutPoint(data []byte) (externalapi.OutPoint, error) {
	if len(data) != OutPointSize {
		return externalapi.OutPoint{}, errors.Wrapf(ErrMalformed, "out point has %d bytes", len(data))
	}
	txHash, err := externalapi.NewDomainHashFromByteSlice(data[:externalapi.DomainHashSize])
	if err != nil {
		return externalapi.OutPoint{}, err
	}
	return externalapi.OutPoint{
		TxHash: txHash,
		Index:  binary.LittleEndian.Uint32(data[externalapi.DomainHashSize:]),
	}, nil
}

// SerializeCellInput encodes input as a 44-byte struct
func SerializeCellInput(input *externalapi.CellInput) []byte {
	buf := make([]byte, 0, CellInputSize)
	buf = putUint64(buf, input.Since)
	return append(buf, SerializeOutPoint(input.PreviousOutput)...)
}

func serializeCellDep(cellDep *externalapi.CellDep) []byte {
	buf := make([]byte, 0, CellDepSize)
	buf = append(buf, SerializeOutPoint(cellDep.OutPoint)...)
	return append(buf, byte(cellDep.DepType))
}

// SerializeCellOutput encodes output as a molecule CellOutput table
func SerializeCellOutput(output *externalapi.CellOutput) []byte {
	return serializeTable([][]byte{
		putUint64(nil, output.Capacity),
		SerializeScript(output.Lock),
		serializeScriptOpt(output.Type),
	})
}

// DeserializeCellOutput decodes a molecule CellOutput table
func DeserializeCellOutput(data []byte) (*externalapi.CellOutput, error) {
	fields, err := deserializeTable(data, 3)
	if err != nil {
		return nil, errors.Wrap(err, "cell output")
	}
	if len(fields[0]) != 8 {
		return nil, errors.Wrapf(ErrMalformed, "cell output capacity has %d bytes", len(fields[0]))
	}
	lock, err := DeserializeScript(fields[1])
	if err != nil {
		return nil, errors.Wrap(err, "cell output lock")
	}
	typeScript, err := deserializeScriptOpt(fields[2])
	if err != nil {
		return nil, errors.Wrap(err, "cell output type")
	}
	return &externalapi.CellOutput{
		Capacity: binary.LittleEndian.Uint64(fields[0]),
		Lock:     lock,
		Type:     typeScript,
	}, nil
}

// SerializeRawTransaction encodes everything in tx except the witnesses.
// This is the preimage of the transaction hash.
func SerializeRawTransaction(tx *externalapi.DomainTransaction) []byte {
	cellDeps := make([][]byte, len(tx.CellDeps))
	for i, cellDep := range tx.CellDeps {
		cellDeps[i] = serializeCellDep(cellDep)
	}
	headerDeps := make([][]byte, len(tx.HeaderDeps))
	for i, headerDep := range tx.HeaderDeps {
		headerDeps[i] = headerDep.ByteSlice()
	}
	inputs := make([][]byte, len(tx.Inputs))
	for i, input := range tx.Inputs {
		inputs[i] = SerializeCellInput(input)
	}
	outputs := make([][]byte, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputs[i] = SerializeCellOutput(output)
	}
	outputsData := make([][]byte, len(tx.OutputsData))
	for i, data := range tx.OutputsData {
		outputsData[i] = SerializeBytes(data)
	}

	return serializeTable([][]byte{
		putUint32(nil, tx.Version),
		serializeFixVec(cellDeps),
		serializeFixVec(headerDeps),
		serializeFixVec(inputs),
		serializeTable(outputs),
		serializeTable(outputsData),
	})
}

// SerializeTransaction encodes tx including its witnesses
func SerializeTransaction(tx *externalapi.DomainTransaction) []byte {
	witnesses := make([][]byte, len(tx.Witnesses))
	for i, witness := range tx.Witnesses {
		witnesses[i] = SerializeBytes(witness)
	}
	return serializeTable([][]byte{
		SerializeRawTransaction(tx),
		serializeTable(witnesses),
	})
}

// DeserializeTransaction decodes a transaction produced by SerializeTransaction
func DeserializeTransaction(data []byte) (*externalapi.DomainTransaction, error) {
	fields, err := deserializeTable(data, 2)
	if err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	rawFields, err := deserializeTable(fields[0], 6)
	if err != nil {
		return nil, errors.Wrap(err, "raw transaction")
	}
	if len(rawFields[0]) != 4 {
		return nil, errors.Wrapf(ErrMalformed, "version has %d bytes", len(rawFields[0]))
	}
	tx := &externalapi.DomainTransaction{Version: binary.LittleEndian.Uint32(rawFields[0])}

	cellDeps, err := deserializeFixVec(rawFields[1], CellDepSize)
	if err != nil {
		return nil, errors.Wrap(err, "cell deps")
	}
	for _, cellDep := range cellDeps {
		outPoint, err := DeserializeOutPoint(cellDep[:OutPointSize])
		if err != nil {
			return nil, err
		}
		tx.CellDeps = append(tx.CellDeps, &externalapi.CellDep{
			OutPoint: outPoint,
			DepType:  externalapi.DepType(cellDep[OutPointSize]),
		})
	}

	headerDeps, err := deserializeFixVec(rawFields[2], externalapi.DomainHashSize)
	if err != nil {
		return nil, errors.Wrap(err, "header deps")
	}
	for _, headerDep := range headerDeps {
		hash, err := externalapi.NewDomainHashFromByteSlice(headerDep)
		if err != nil {
			return nil, err
		}
		tx.HeaderDeps = append(tx.HeaderDeps, hash)
	}

	inputs, err := deserializeFixVec(rawFields[3], CellInputSize)
	if err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	for _, input := range inputs {
		outPoint, err := DeserializeOutPoint(input[8:])
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, &externalapi.CellInput{
			PreviousOutput: outPoint,
			Since:          binary.LittleEndian.Uint64(input[:8]),
		})
	}

	outputs, err := deserializeTable(rawFields[4], -1)
	if err != nil {
		return nil, errors.Wrap(err, "outputs")
	}
	for _, output := range outputs {
		cellOutput, err := DeserializeCellOutput(output)
		if err != nil {
			return nil, err
		}
		tx.Outputs = append(tx.Outputs, cellOutput)
	}

	outputsData, err := deserializeTable(rawFields[5], -1)
	if err != nil {
		return nil, errors.Wrap(err, "outputs data")
	}
	for _, data := range outputsData {
		decoded, err := DeserializeBytes(data)
		if err != nil {
			return nil, err
		}
		tx.OutputsData = append(tx.OutputsData, decoded)
	}

	witnesses, err := deserializeTable(fields[1], -1)
	if err != nil {
		return nil, errors.Wrap(err, "witnesses")
	}
	for _, witness := range witnesses {
		decoded, err := DeserializeBytes(witness)
		if err != nil {
			return nil, err
		}
		tx.Witnesses = append(tx.Witnesses, decoded)
	}
	return tx, nil
}

// SerializeCell encodes a cell output together with its data
func SerializeCell(output *externalapi.CellOutput, data []byte) []byte {
	return serializeTable([][]byte{
		SerializeCellOutput(output),
		SerializeBytes(data),
	})
}

// DeserializeCell decodes a cell produced by SerializeCell
func DeserializeCell(serialized []byte) (*externalapi.CellOutput, []byte, error) {
	fields, err := deserializeTable(serialized, 2)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cell")
	}
	output, err := DeserializeCellOutput(fields[0])
	if err != nil {
		return nil, nil, err
	}
	data, err := DeserializeBytes(fields[1])
	if err != nil {
		return nil, nil, errors.Wrap(err, "cell data")
	}
	return output, data, nil
}

// SerializeOutPointVec encodes outPoints as a fixvec, the data layout of a dep group cell
func SerializeOutPointVec(outPoints []externalapi.OutPoint) []byte {
	items := make([][]byte, len(outPoints))
	for i, outPoint := range outPoints {
		items[i] = SerializeOutPoint(outPoint)
	}
	return serializeFixVec(items)
}

// DeserializeOutPointVec decodes the data of a dep group cell
func DeserializeOutPointVec(data []byte) ([]externalapi.OutPoint, error) {
	items, err := deserializeFixVec(data, OutPointSize)
	if err != nil {
		return nil, errors.Wrap(err, "out point vec")
	}
	outPoints := make([]externalapi.OutPoint, len(items))
	for i, item := range items {
		outPoints[i], err = DeserializeOutPoint(item)
		if err != nil {
			return nil, err
		}
	}
	return outPoints, nil
}
