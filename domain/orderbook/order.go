package orderbook

type Side int
type Status int

const (
	Bid Side = iota
	Ask
)

const (
	Resting Status = iota
	PartiallyFilled
	Filled
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

func (s Status) String() string {
	switch s {
	case Resting:
		return "resting"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	}
	return "unknown"
}

// Order is a pure domain entity. ID doubles as time priority: the
// engine hands out ids monotonically in arrival order.
type Order struct {
	ID     uint64
	Price  int64
	Qty    int64
	Filled int64

	Side   Side
	Status Status

	next *Order
	prev *Order
}

func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Read-only traversal helper
func (o *Order) Next() *Order {
	return o.next
}

// reset prepares a pooled Order for reuse.
func (o *Order) reset() {
	*o = Order{}
}
