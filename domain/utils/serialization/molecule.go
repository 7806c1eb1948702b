package serialization

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrMalformed is returned when a byte buffer does not follow the expected layout
var ErrMalformed = errors.New("malformed data")

const headerUnitSize = 4

func putUint32(buf []byte, value uint32) []byte {
	var encoded [4]byte
	binary.LittleEndian.PutUint32(encoded[:], value)
	return append(buf, encoded[:]...)
}

func putUint64(buf []byte, value uint64) []byte {
	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], value)
	return append(buf, encoded[:]...)
}

// SerializeBytes encodes data as a fixvec of bytes: a 4-byte length followed by the data
func SerializeBytes(data []byte) []byte {
	buf := make([]byte, 0, headerUnitSize+len(data))
	buf = putUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// serializeBytesOpt encodes an optional Bytes. nil encodes to nothing.
func serializeBytesOpt(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return SerializeBytes(data)
}

// serializeFixVec encodes items of identical size
func serializeFixVec(items [][]byte) []byte {
	buf := putUint32(nil, uint32(len(items)))
	for _, item := range items {
		buf = append(buf, item...)
	}
	return buf
}

// serializeTable encodes fields as a table: total size, one offset per field, then the fields.
// The same layout is used for dynvecs.
func serializeTable(fields [][]byte) []byte {
	headerSize := headerUnitSize * (1 + len(fields))
	totalSize := headerSize
	for _, field := range fields {
		totalSize += len(field)
	}

	buf := make([]byte, 0, totalSize)
	buf = putUint32(buf, uint32(totalSize))
	offset := headerSize
	for _, field := range fields {
		buf = putUint32(buf, uint32(offset))
		offset += len(field)
	}
	for _, field := range fields {
		buf = append(buf, field...)
	}
	return buf
}

// DeserializeBytes decodes a fixvec of bytes
func DeserializeBytes(data []byte) ([]byte, error) {
	if len(data) < headerUnitSize {
		return nil, errors.Wrapf(ErrMalformed, "bytes header needs %d bytes, got %d", headerUnitSize, len(data))
	}
	length := binary.LittleEndian.Uint32(data)
	if uint64(len(data)) != uint64(headerUnitSize)+uint64(length) {
		return nil, errors.Wrapf(ErrMalformed, "bytes declares %d items, buffer holds %d", length, len(data)-headerUnitSize)
	}
	result := make([]byte, length)
	copy(result, data[headerUnitSize:])
	return result, nil
}

func deserializeBytesOpt(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return DeserializeBytes(data)
}

// deserializeFixVec splits a fixvec of itemSize-sized items
func deserializeFixVec(data []byte, itemSize int) ([][]byte, error) {
	if len(data) < headerUnitSize {
		return nil, errors.Wrapf(ErrMalformed, "fixvec header needs %d bytes, got %d", headerUnitSize, len(data))
	}
	count := uint64(binary.LittleEndian.Uint32(data))
	if uint64(len(data)) != uint64(headerUnitSize)+count*uint64(itemSize) {
		return nil, errors.Wrapf(ErrMalformed, "fixvec of %d items of size %d does not fit %d bytes",
			count, itemSize, len(data))
	}
	items := make([][]byte, count)
	for i := range items {
		start := headerUnitSize + i*itemSize
		items[i] = data[start : start+itemSize]
	}
	return items, nil
}

// deserializeTable splits a table or dynvec into its fields. When expectedFields is
// non-negative the table must have at least that many fields; extra trailing fields
// are tolerated so newer encodings stay readable.
func deserializeTable(data []byte, expectedFields int) ([][]byte, error) {
	if len(data) < headerUnitSize {
		return nil, errors.Wrapf(ErrMalformed, "table header needs %d bytes, got %d", headerUnitSize, len(data))
	}
	totalSize := binary.LittleEndian.Uint32(data)
	if uint64(totalSize) != uint64(len(data)) {
		return nil, errors.Wrapf(ErrMalformed, "table declares %d bytes, buffer holds %d", totalSize, len(data))
	}
	if totalSize == headerUnitSize {
		if expectedFields > 0 {
			return nil, errors.Wrapf(ErrMalformed, "table has no fields, expected %d", expectedFields)
		}
		return [][]byte{}, nil
	}
	if len(data) < 2*headerUnitSize {
		return nil, errors.Wrapf(ErrMalformed, "table of %d bytes has no room for offsets", len(data))
	}

	firstOffset := binary.LittleEndian.Uint32(data[headerUnitSize:])
	if firstOffset%headerUnitSize != 0 || firstOffset < 2*headerUnitSize || firstOffset > totalSize {
		return nil, errors.Wrapf(ErrMalformed, "bad first offset %d", firstOffset)
	}
	fieldCount := int(firstOffset/headerUnitSize) - 1
	if expectedFields >= 0 && fieldCount < expectedFields {
		return nil, errors.Wrapf(ErrMalformed, "table has %d fields, expected %d", fieldCount, expectedFields)
	}

	offsets := make([]uint32, fieldCount+1)
	for i := 0; i < fieldCount; i++ {
		offsets[i] = binary.LittleEndian.Uint32(data[headerUnitSize*(i+1):])
	}
	offsets[fieldCount] = totalSize

	fields := make([][]byte, fieldCount)
	for i := 0; i < fieldCount; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, errors.Wrapf(ErrMalformed, "offset of field %d exceeds offset of field %d", i, i+1)
		}
		fields[i] = data[offsets[i]:offsets[i+1]]
	}
	return fields, nil
}
