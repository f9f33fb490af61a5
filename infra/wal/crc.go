package wal

import "hash/crc32"

// frameCRC checksums one record's header and payload in frame order.
// Chaining through Update yields the same sum as checksumming the
// concatenation, without stitching the slices together first.
func frameCRC(header, payload []byte) uint32 {
	sum := crc32.ChecksumIEEE(header)
	return crc32.Update(sum, crc32.IEEETable, payload)
}
