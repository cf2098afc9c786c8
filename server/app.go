package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buoyd/config"
	"buoyd/internal/actuator"
	"buoyd/internal/archive"
	"buoyd/internal/db"
	"buoyd/internal/fleet"
	"buoyd/internal/health"
	"buoyd/internal/logs"
	"buoyd/internal/middleware"
	"buoyd/internal/probe"
	"buoyd/internal/release"
	"buoyd/internal/repo"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	line   actuator.Actuator
	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	// 1) Логи
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) БД (опционально; без неё журнал статусов живёт в памяти)
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		a.db = d
		if err := db.Migrate(a.db); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}
	}

	// 3) Файл флота — источник истины по расписанию и released-флагам
	fleetStore := fleet.NewStore(a.cfg.Fleet.File)
	fl, err := fleetStore.Load()
	if err != nil {
		log.Fatalf("fleet load failed: %v", err)
	}
	for _, b := range fl.Buoys {
		logs.Logger.Infof("buoy id=%s pin=%d release_at=%s released=%v",
			b.ID, b.Pin, b.ReleaseAt.Format(fleet.TimeLayout), b.Released)
	}

	// 4) Актуатор: все линии в LOW при старте
	switch a.cfg.Actuator.Driver {
	case "mock":
		a.line = actuator.NewMock()
	default:
		g, err := actuator.NewGPIO()
		if err != nil {
			log.Fatalf("gpio init failed: %v", err)
		}
		a.line = g
	}
	if err := a.line.Init(fl.Pins()); err != nil {
		log.Fatalf("actuator init failed: %v", err)
	}

	// 5) Журнал статусов: gorm либо in-memory fallback
	var status release.StatusStore
	if a.db != nil {
		status = repo.NewStatusStore(a.db)
	} else {
		status = release.NewMemStatus()
	}

	mover := archive.NewMover(a.cfg.Drop.BaseDir, a.cfg.Drop.Inbound)

	ctrl := release.NewController(fleetStore, status, probe.NewPinger(), a.line, mover, release.Params{
		Hold:      time.Duration(a.cfg.Release.HoldSecs) * time.Second,
		MaxWait:   time.Duration(a.cfg.Release.MaxWaitSecs) * time.Second,
		Offset:    time.Duration(a.cfg.Release.OffsetSecs) * time.Second,
		SyncHours: a.cfg.Release.SamplingTimeHours,
	})

	// 6) Стартовая сверка: Init-записи журнала + догон файлов по буям,
	// чей срок наступил, пока процесс не работал
	if err := ctrl.Reconcile(time.Now()); err != nil {
		logs.Logger.Errorf("startup reconcile: %v", err)
	}

	// 7) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	a.RegisterWebUI("/ui/")

	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db) // /healthz и /readyz
	} else {
		health.RegisterRoutes(a.Router)
	}

	release.NewHTTP(ctrl).RegisterRoutes(a.Router)

	a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	if a.line != nil {
		_ = a.line.Close() // линии в LOW перед выходом
	}
	return nil
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
