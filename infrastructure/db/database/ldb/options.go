package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

// Options returns the leveldb options every database is opened with. The
// live cell sets kept here are small, so the caches are kept small too.
func Options() *opt.Options {
	return &opt.Options{
		Compression:            opt.SnappyCompression,
		BlockCacheCapacity:     2 * opt.MiB,
		WriteBuffer:            1 * opt.MiB,
		DisableSeeksCompaction: true,
	}
}
