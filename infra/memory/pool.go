package memory

import "sync"

// Pool is a typed object pool. The zero ctor case is covered by
// NewPool's default constructor.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	if ctor == nil {
		ctor = func() *T { return new(T) }
	}
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
