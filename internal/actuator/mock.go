package actuator

import "sync"

// Mock — запоминает все переключения; для тестов и стендов без GPIO.
type Mock struct {
	mu     sync.Mutex
	levels map[int]bool
	trace  map[int][]bool
}

func NewMock() *Mock {
	return &Mock{
		levels: make(map[int]bool),
		trace:  make(map[int][]bool),
	}
}

func (m *Mock) Init(pins []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pins {
		m.levels[p] = false
	}
	return nil
}

func (m *Mock) Set(pin int, high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[pin] = high
	m.trace[pin] = append(m.trace[pin], high)
	return nil
}

func (m *Mock) Close() error { return nil }

// Level — текущий уровень линии.
func (m *Mock) Level(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// Trace — последовательность уровней, выставленных через Set.
func (m *Mock) Trace(pin int) []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.trace[pin]))
	copy(out, m.trace[pin])
	return out
}
