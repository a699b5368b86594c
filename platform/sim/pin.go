package sim

import (
	"errors"
	"sync"
)

// ErrNack is returned for an I2C address nobody answers.
var ErrNack = errors.New("sim: nack")

// Pin is a GPIO output that records its transitions.
type Pin struct {
	mu    sync.Mutex
	level bool
	Edges int
}

func (p *Pin) High() { p.Set(true) }
func (p *Pin) Low()  { p.Set(false) }

func (p *Pin) Set(level bool) {
	p.mu.Lock()
	if level != p.level {
		p.Edges++
	}
	p.level = level
	p.mu.Unlock()
}

func (p *Pin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Rises returns the number of low-to-high transitions seen so far.
func (p *Pin) Rises() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.Edges / 2
	if p.level {
		n++
	}
	return n
}
