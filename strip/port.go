package strip

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Port is an 8 bit output register. Each bit drives one line; writing the
// register drives all of them at once.
type Port interface {
	Read() uint8
	Write(v uint8)
}

// PinPort exposes a single gpio line as bit 0 of a register.
//
// Out errors cannot be acted upon in the middle of a frame; the first one is
// kept and returned by Err.
type PinPort struct {
	Pin gpio.PinIO

	mu  sync.Mutex
	err error
}

// NewPinPort wraps p.
func NewPinPort(p gpio.PinIO) *PinPort {
	return &PinPort{Pin: p}
}

func (p *PinPort) Read() uint8 {
	if p.Pin.Read() == gpio.High {
		return 1
	}
	return 0
}

func (p *PinPort) Write(v uint8) {
	if err := p.Pin.Out(v&1 != 0); err != nil {
		p.mu.Lock()
		if p.err == nil {
			p.err = err
		}
		p.mu.Unlock()
	}
}

// Err returns and resets the first write error since the last call.
func (p *PinPort) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.err
	p.err = nil
	return err
}

type errPort interface {
	Err() error
}
