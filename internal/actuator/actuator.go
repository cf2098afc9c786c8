package actuator

// Actuator — двухуровневая цифровая линия на пин.
// HIGH — электромагнит под напряжением, LOW — обесточен.
type Actuator interface {
	// Init регистрирует пины и переводит все линии в LOW.
	Init(pins []int) error
	Set(pin int, high bool) error
	Close() error
}
