package release

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"buoyd/internal/actuator"
	"buoyd/internal/archive"
	"buoyd/internal/fleet"
	"buoyd/internal/logs"
	"buoyd/internal/models"
	"buoyd/internal/probe"
)

var (
	ErrUnknownBuoy      = errors.New("buoy not registered")
	ErrAlreadyReleasing = errors.New("release already in progress")
)

// StatusStore — контракт журнала статусов.
type StatusStore interface {
	Upsert(id, state string, ts time.Time) error
	Get(id string) (models.BuoyStatus, bool)
	List() ([]models.BuoyStatus, error)
}

// Params — тайминги цикла отстрела.
type Params struct {
	// Hold — минимальное удержание линии под напряжением; он же период
	// опроса присутствия (отдельной ручки нет, это осознанное упрощение).
	Hold time.Duration
	// MaxWait — дедлайн подтверждения отстрела после удержания.
	MaxWait time.Duration
	// Offset — грейс при стартовой сверке расписания.
	Offset time.Duration
	// SyncHours — интервал синхронизации, отдаётся буям как есть.
	SyncHours int
}

// Decision — ответ на запрос разрешения. Считается заново на каждый
// запрос, никогда не кэшируется: правка расписания назад вернёт флаг в 0.
type Decision struct {
	ReleaseFlag  int    `json:"releaseFlag"`
	ReleaseMode  string `json:"releaseMode"`
	SleepHours   string `json:"sleeptime_h"`
	SleepMinutes string `json:"sleeptime_m"`
}

// Controller — машина состояний отстрела. Один экземпляр на процесс,
// собирается при старте из загруженного конфига (никакого скрытого
// глобального состояния).
type Controller struct {
	fleet  *fleet.Store
	status StatusStore
	prober probe.Prober
	line   actuator.Actuator
	mover  *archive.Mover
	params Params

	now func() time.Time

	mu     sync.Mutex
	active map[string]struct{} // буи с задачей отстрела в полёте
}

func NewController(fl *fleet.Store, st StatusStore, pr probe.Prober, line actuator.Actuator, mv *archive.Mover, p Params) *Controller {
	return &Controller{
		fleet:  fl,
		status: st,
		prober: pr,
		line:   line,
		mover:  mv,
		params: p,
		now:    time.Now,
		active: make(map[string]struct{}),
	}
}

// Request — синхронная часть: валидация и запуск отложенной задачи.
// Ответ вызывающему — только accept/reject; исход виден через журналы.
func (c *Controller) Request(id, addr string) error {
	f, err := c.fleet.Load()
	if err != nil {
		return err
	}
	b, ok := f.Get(id)
	if !ok {
		logs.Logger.Errorf("buoy with id=%s not registered", id)
		return ErrUnknownBuoy
	}

	// check-and-insert атомарно: второй конкурентный запрос на тот же
	// буй не должен дёргать ту же линию.
	c.mu.Lock()
	if _, busy := c.active[id]; busy {
		c.mu.Unlock()
		return ErrAlreadyReleasing
	}
	c.active[id] = struct{}{}
	c.mu.Unlock()

	go c.run(b.ID, b.Pin, addr)
	return nil
}

// run — одна задача отстрела: Actuating → Monitoring → Released|TimedOut.
// Не отменяется извне; линия обесточивается на любом исходе.
func (c *Controller) run(id string, pin int, addr string) {
	defer func() {
		c.mu.Lock()
		delete(c.active, id)
		c.mu.Unlock()
	}()

	logs.Logger.Infof("activating pin %d to release buoy id=%s", pin, id)
	c.record(id, models.StateActuating)
	if err := c.line.Set(pin, true); err != nil {
		logs.Logger.Errorf("energize pin %d: %v", pin, err)
	}
	time.Sleep(c.params.Hold)

	start := c.now()
	timedOut := false
	for c.prober.Probe(context.Background(), addr) {
		logs.Logger.Warnf("buoy id=%s ip=%s is still connected", id, addr)
		if c.now().Sub(start) > c.params.MaxWait {
			timedOut = true
			break
		}
		time.Sleep(c.params.Hold)
	}

	// fail-safe: механизм обесточивается всегда, успех или нет
	if err := c.line.Set(pin, false); err != nil {
		logs.Logger.Errorf("de-energize pin %d: %v", pin, err)
	}

	if timedOut {
		logs.Logger.Errorf("release cycle failed: buoy id=%s ip=%s still reachable after %s", id, addr, c.params.MaxWait)
		return
	}

	logs.Logger.Infof("release finished id=%s", id)
	if err := c.fleet.MarkReleased(id); err != nil {
		// released=true потерян — нужна ручная сверка, ретраев нет
		logs.Logger.Errorf("persist released flag id=%s: %v (manual reconciliation required)", id, err)
	}
	c.record(id, models.StateReleased)
}

// Evaluate — чистое разрешение на отстрел: флаг 1 тогда и только тогда,
// когда now >= release_at (граница включительно). Метаданные расписания
// отдаются при любом значении флага, чтобы буй мог спланировать
// следующий опрос.
func (c *Controller) Evaluate(id string, now time.Time) (Decision, error) {
	f, err := c.fleet.Load()
	if err != nil {
		return Decision{}, err
	}
	b, ok := f.Get(id)
	if !ok {
		return Decision{}, ErrUnknownBuoy
	}
	flag := 0
	if !now.Before(b.ReleaseAt.Time) {
		flag = 1
	}
	c.record(id, models.StatePermissionQueried)
	return Decision{
		ReleaseFlag:  flag,
		ReleaseMode:  b.ReleaseMode,
		SleepHours:   strconv.Itoa(b.SleepHours),
		SleepMinutes: strconv.Itoa(b.SleepMinutes),
	}, nil
}

// SyncHours — настроенный интервал синхронизации для известного буя.
func (c *Controller) SyncHours(id string) (int, error) {
	f, err := c.fleet.Load()
	if err != nil {
		return 0, err
	}
	if _, ok := f.Get(id); !ok {
		return 0, ErrUnknownBuoy
	}
	c.record(id, models.StateSyncQueried)
	return c.params.SyncHours, nil
}

// MoveInbound — разовый перенос входящих файлов в архив буя.
func (c *Controller) MoveInbound(id string) error {
	return c.mover.MoveAll(id)
}

// Reconcile — одноразовая стартовая сверка, без побочных эффектов кроме
// журнала и догона файлов:
//   - нет записи в журнале — сажаем Init;
//   - буй стал «в сроке», пока процесс не работал (персистентный флаг 0,
//     а по текущему времени уже 1) — переносим входящие файлы в его
//     архив и поднимаем флаг.
//
// released никогда не сбрасывается.
func (c *Controller) Reconcile(now time.Time) error {
	f, err := c.fleet.Load()
	if err != nil {
		return err
	}

	for _, b := range f.Buoys {
		if _, ok := c.status.Get(b.ID); !ok {
			c.record(b.ID, models.StateInit)
		}
	}

	deadline := now.Add(c.params.Offset)
	for _, b := range f.Buoys {
		due := !b.ReleaseAt.After(deadline)
		if !due || b.ReleaseFlag != 0 {
			continue
		}
		logs.Logger.Infof("release condition met for buoy id=%s, moving files", b.ID)
		if err := c.mover.MoveAll(b.ID); err != nil {
			// флаг не поднимаем: следующий старт попробует ещё раз
			logs.Logger.Errorf("move files for buoy id=%s: %v", b.ID, err)
			continue
		}
		if err := c.fleet.SetReleaseFlag(b.ID, 1); err != nil {
			logs.Logger.Errorf("persist release flag id=%s: %v", b.ID, err)
		}
	}
	return nil
}

// Active — буи с задачей отстрела в полёте (диагностика).
func (c *Controller) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.active))
	for id := range c.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *Controller) record(id, state string) {
	if err := c.status.Upsert(id, state, c.now()); err != nil {
		logs.Logger.Warnf("status log update id=%s state=%s: %v", id, state, err)
	}
}
