package ldb

import "bytes"

var bucketSeparator = []byte("/")

// Bucket is a key prefix grouping related keys
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a new Bucket using the given path of buckets.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the sub-bucket of the current bucket
// defined by bucketBytes.
func (b *Bucket) Bucket(bucketBytes []byte) *Bucket {
	newPath := make([][]byte, len(b.path)+1)
	copy(newPath, b.path)
	newPath[len(b.path)] = bucketBytes
	return MakeBucket(newPath...)
}

// Key returns the full key of suffix inside this bucket
func (b *Bucket) Key(suffix []byte) []byte {
	prefix := b.Prefix()
	key := make([]byte, 0, len(prefix)+len(suffix))
	key = append(key, prefix...)
	return append(key, suffix...)
}

// Prefix returns the bytes every key in this bucket starts with
func (b *Bucket) Prefix() []byte {
	var buffer bytes.Buffer
	for _, element := range b.path {
		buffer.Write(element)
		buffer.Write(bucketSeparator)
	}
	return buffer.Bytes()
}
