// Package service orchestrates the write path of the matching
// engine: validation, journaling, matching, and trade fan-out to the
// outbox, the tape, and registered listeners.
//
// It also owns boot recovery (checkpoint restore plus journal
// replay) and the periodic checkpoint job. Transports stay thin and
// call into OrderService; nothing else mutates engine state after
// boot.
package service
