package events

import (
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// Multi forwards each event to every observer in order.
type Multi []port.Observer

func (m Multi) Observe(e domain.Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

type Nop struct{}

func (Nop) Observe(domain.Event) {}

// Func adapts a function to port.Observer.
type Func func(domain.Event)

func (f Func) Observe(e domain.Event) {
	f(e)
}
