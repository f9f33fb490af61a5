// Package orderbook implements the in-memory matching engine for a
// single instrument. It maintains two red-black trees of price levels
// for the bid and ask sides, enforces price-time priority with FIFO
// queues at each price, and executes crossed orders at the ask side's
// price until the book is uncrossed.
//
// The package performs no I/O of its own. Executions are reported to
// registered trade handlers on the submitting goroutine; durability,
// transport, and broadcast live in the layers above.
package orderbook
