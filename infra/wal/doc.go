// Package wal implements the segmented write-ahead journal for order
// submissions. Records are framed with a CRC32 trailer, segments
// rotate by size or age, and Replay walks every surviving segment in
// order, enforcing monotonic sequence numbers. TruncateBefore drops
// whole segments once a snapshot covers them.
package wal
