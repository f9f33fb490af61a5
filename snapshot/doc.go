// Package snapshot checkpoints the matching engine to disk so a
// restart replays only the journal tail.
//
// A checkpoint is a gob file holding the resting orders, the journal
// sequence it covers, and the id counters. Writes land via rename so
// a crash mid-write leaves the previous checkpoint intact. Loading
// restores every order under its original id, fast-forwards the
// counters, and hands back the sequence to resume replay from.
package snapshot
