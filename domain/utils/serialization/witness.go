package serialization

import (
	"github.com/kaspanet/cinnabar/domain/model/externalapi"
	"github.com/pkg/errors"
)

// SerializeWitnessArgs encodes witness as a molecule WitnessArgs table
func SerializeWitnessArgs(witness *externalapi.WitnessArgs) []byte {
	if witness == nil {
		witness = &externalapi.WitnessArgs{}
	}
	return serializeTable([][]byte{
		serializeBytesOpt(witness.Lock),
		serializeBytesOpt(witness.InputType),
		serializeBytesOpt(witness.OutputType),
	})
}

// DeserializeWitnessArgs decodes a molecule WitnessArgs table
func DeserializeWitnessArgs(data []byte) (*externalapi.WitnessArgs, error) {
	fields, err := deserializeTable(data, 3)
	if err != nil {
		return nil, errors.Wrap(err, "witness args")
	}
	lock, err := deserializeBytesOpt(fields[0])
	if err != nil {
		return nil, errors.Wrap(err, "witness lock")
	}
	inputType, err := deserializeBytesOpt(fields[1])
	if err != nil {
		return nil, errors.Wrap(err, "witness input type")
	}
	outputType, err := deserializeBytesOpt(fields[2])
	if err != nil {
		return nil, errors.Wrap(err, "witness output type")
	}
	return &externalapi.WitnessArgs{
		Lock:       lock,
		InputType:  inputType,
		OutputType: outputType,
	}, nil
}
