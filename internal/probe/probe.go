package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Prober отвечает на вопрос «буй ещё в сети?». Таймаут и недостижимость —
// штатные исходы, поэтому ошибок тут нет.
type Prober interface {
	Probe(ctx context.Context, addr string) bool
}

// Func — адаптер для тестов.
type Func func(ctx context.Context, addr string) bool

func (f Func) Probe(ctx context.Context, addr string) bool { return f(ctx, addr) }

// Pinger — ICMP-прощупывание: Count эхо-пакетов, общий Timeout.
type Pinger struct {
	Count   int
	Timeout time.Duration
}

func NewPinger() *Pinger {
	// как ping -c 4 с таймаутом 5 секунд
	return &Pinger{Count: 4, Timeout: 5 * time.Second}
}

func (p *Pinger) Probe(ctx context.Context, addr string) bool {
	pg, err := probing.NewPinger(addr)
	if err != nil {
		return false
	}
	pg.Count = p.Count
	pg.Timeout = p.Timeout
	// UDP-пинг: не требует CAP_NET_RAW
	pg.SetPrivileged(false)
	if err := pg.RunWithContext(ctx); err != nil {
		return false
	}
	return pg.Statistics().PacketsRecv > 0
}
