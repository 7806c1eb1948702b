package ldb

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
)

// Cursor is a thin wrapper around a native leveldb iterator
// restricted to the keys of one bucket.
type Cursor struct {
	iterator iterator.Iterator
	prefix   []byte
	isClosed bool
}

// Next moves the iterator to the next key/value pair.
// It returns whether the iterator is exhausted.
// Panics if the cursor is closed.
func (c *Cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.iterator.Next()
}

// Key returns the key of the current key/value pair, without the bucket prefix.
// Note that the key is trimmed to not include the prefix the cursor was opened with.
// The caller should not modify the contents of the returned slice, and its
// contents may change on the next call to Next.
func (c *Cursor) Key() ([]byte, error) {
	if c.isClosed {
		return nil, errors.Errorf("cannot get the key of a closed cursor")
	}
	fullKey := c.iterator.Key()
	if fullKey == nil {
		return nil, errors.Errorf("cannot get the key of an exhausted cursor")
	}
	return bytes.TrimPrefix(fullKey, c.prefix), nil
}

// Value returns a copy of the value of the current key/value pair.
func (c *Cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.Errorf("cannot get the value of a closed cursor")
	}
	value := c.iterator.Value()
	if value == nil {
		return nil, errors.Errorf("cannot get the value of an exhausted cursor")
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

// Close releases associated resources.
func (c *Cursor) Close() error {
	if c.isClosed {
		return errors.Errorf("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.iterator.Release()
	return errors.WithStack(c.iterator.Error())
}
