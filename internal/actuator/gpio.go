package actuator

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO — драйвер на periph.io (Raspberry Pi и совместимые).
type GPIO struct {
	mu   sync.Mutex
	pins map[int]gpio.PinIO
}

func NewGPIO() (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &GPIO{pins: make(map[int]gpio.PinIO)}, nil
}

func (g *GPIO) Init(pins []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range pins {
		p := gpioreg.ByName(strconv.Itoa(n))
		if p == nil {
			return fmt.Errorf("gpio pin %d not found", n)
		}
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("gpio pin %d: %w", n, err)
		}
		g.pins[n] = p
	}
	return nil
}

func (g *GPIO) Set(pin int, high bool) error {
	g.mu.Lock()
	p, ok := g.pins[pin]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("gpio pin %d not initialized", pin)
	}
	lvl := gpio.Low
	if high {
		lvl = gpio.High
	}
	return p.Out(lvl)
}

// Close обесточивает все линии.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var firstErr error
	for n, p := range g.pins {
		if err := p.Out(gpio.Low); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("gpio pin %d: %w", n, err)
		}
	}
	return firstErr
}
