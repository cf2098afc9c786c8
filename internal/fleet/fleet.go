package fleet

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeLayout — формат даты в файле флота (наследие прошивок буёв).
const TimeLayout = "2006/01/02 15:04:05"

// Timestamp — time.Time с YAML-кодеком под TimeLayout.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.Format(TimeLayout), nil
}

// Buoy — запись одного буя в файле флота.
// Released монотонна: контроллер выставляет true и никогда не сбрасывает.
type Buoy struct {
	ID           string    `yaml:"id"`
	Pin          int       `yaml:"pin"`
	ReleaseAt    Timestamp `yaml:"release_at"`
	ReleaseMode  string    `yaml:"release_mode"`
	SleepHours   int       `yaml:"sleep_time_hours"`
	SleepMinutes int       `yaml:"sleep_time_minutes"`
	// ReleaseFlag — персистентная отметка «срок наступил» для стартовой
	// сверки; разрешение на отстрел всегда пересчитывается заново.
	ReleaseFlag int  `yaml:"release_flag"`
	Released    bool `yaml:"released"`
}

// Fleet — весь набор записей; файл читается и пишется целиком.
type Fleet struct {
	Buoys []Buoy `yaml:"buoys"`
}

func (f Fleet) Get(id string) (Buoy, bool) {
	for _, b := range f.Buoys {
		if b.ID == id {
			return b, true
		}
	}
	return Buoy{}, false
}

func (f Fleet) Pins() []int {
	out := make([]int, 0, len(f.Buoys))
	for _, b := range f.Buoys {
		out = append(out, b.Pin)
	}
	return out
}
