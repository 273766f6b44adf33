package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kitu-show/kitu/internal/admin"
	"github.com/kitu-show/kitu/internal/config"
	"github.com/kitu-show/kitu/internal/data"
	"github.com/kitu-show/kitu/internal/embed"
	"github.com/kitu-show/kitu/internal/engine"
	"github.com/kitu-show/kitu/internal/persist"
	"github.com/kitu-show/kitu/internal/scripting"
	"github.com/kitu-show/kitu/internal/shell"
	"github.com/kitu-show/kitu/internal/system"
	"github.com/kitu-show/kitu/internal/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/kitu.toml"
	if p := os.Getenv("KITU_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config")
	shellMode := flag.Bool("shell", false, "read operator commands from stdin instead of ticking on a timer")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfgPath)

	// 3. Table store: PostgreSQL when a DSN is set, memory otherwise
	printSection("store")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Transport and runtime
	tr := buildTransport(cfg.Transport, log)
	rt := engine.New(engine.Config{TickRateHz: cfg.Runtime.TickRateHz}, tr, log.Named("runtime"))

	host := scripting.NewHost(log.Named("lua"))
	defer host.Close()
	host.BindSender(rt.Outbox())

	// 5. Scene
	if cfg.Scene.Path != "" {
		printSection("scene")
		scene, err := data.LoadScene(cfg.Scene.Path)
		if err != nil {
			return err
		}
		loaded, err := applyScene(ctx, rt, host, store, scene, sceneOptions{
			Charset:     cfg.Scene.Charset,
			EmitAddress: cfg.Timeline.EmitAddress,
			Log:         log,
		})
		if err != nil {
			return fmt.Errorf("apply scene: %w", err)
		}
		printStat("components", loaded.Components)
		printStat("timelines", loaded.Timelines)
		printStat("scripts", loaded.Scripts)
		printStat("tables", loaded.Tables)
		fmt.Println()
	}

	// 6. Snapshots
	var snap *system.SnapshotSystem
	if cfg.Snapshot.IntervalTicks > 0 {
		snap = system.NewSnapshotSystem(store, cfg.Snapshot.Table, rt.Config().FrameTime(), cfg.Snapshot.IntervalTicks, log.Named("snapshot"))
		rt.Runner().RegisterPhased(snap)
		printOK(fmt.Sprintf("snapshots every %d ticks into %s", cfg.Snapshot.IntervalTicks, cfg.Snapshot.Table))
	}

	embed.SetLogger(log.Named("embed"))
	id := embed.Adopt(rt)
	h, _ := embed.Lookup(id)

	// 7. Admin backend
	if cfg.Admin.Enabled {
		srv := admin.NewWebAdminServer(cfg.Admin.TokenHash, log.Named("admin"))
		admin.RegisterDefaultRoutes(srv, h)
		srv.Start()
		httpSrv := &http.Server{Addr: cfg.Admin.BindAddress, Handler: srv.HTTPHandler()}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin http server failed", zap.Error(err))
			}
		}()
		defer func() {
			srv.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
		printReady("admin listening on " + cfg.Admin.BindAddress)
	}

	// 8. Run
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	if *shellMode {
		sh := shell.New(log.Named("shell"))
		sh.BindRuntime(h)
		printReady("shell ready, type help")
		errCh := make(chan error, 1)
		go func() { errCh <- sh.Serve(context.Background(), os.Stdin, os.Stdout) }()
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("shell: %w", err)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
		}
	} else {
		tickLoop(id, rt.Config().FrameTime(), cfg.Runtime.MaxTicks, shutdownCh, log)
	}

	shutdown(id, h, snap, log)
	return nil
}

// tickLoop advances the runtime behind id on a fixed ticker until a signal
// arrives or maxTicks ticks have completed. A failed tick is logged by the
// handle table and resumed on the next frame.
func tickLoop(id uint64, frame time.Duration, maxTicks uint64, shutdownCh <-chan os.Signal, log *zap.Logger) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	printReady(fmt.Sprintf("tick loop started (frame: %s)", frame))
	fmt.Println()

	var done uint64
	for {
		select {
		case <-ticker.C:
			switch embed.Advance(id) {
			case embed.StatusOK:
			case embed.StatusError:
				continue
			default:
				log.Error("runtime handle is gone", zap.Uint64("handle", id))
				return
			}
			done++
			if maxTicks > 0 && done >= maxTicks {
				log.Info("max ticks reached", zap.Uint64("ticks", done))
				return
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return
		}
	}
}

func shutdown(id uint64, h *embed.Handle, snap *system.SnapshotSystem, log *zap.Logger) {
	if snap != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := h.Do(func(rt *engine.Runtime) error {
			return snap.Save(ctx, rt.WorldMut(), rt.CurrentTick())
		})
		if err != nil {
			log.Error("final snapshot failed", zap.Error(err))
		}
	}
	var final uint64
	_ = h.Do(func(rt *engine.Runtime) error {
		final = rt.CurrentTick().Get()
		return nil
	})
	if status := embed.Destroy(id); status != embed.StatusOK {
		log.Warn("release runtime", zap.Int32("status", status))
	}
	log.Info("runtime stopped", zap.Uint64("tick", final))
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (persist.TableStore, func(), error) {
	if cfg.DSN == "" {
		printOK("in-memory table store")
		return persist.NewMemStore(), func() {}, nil
	}
	db, err := persist.NewDB(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")
	if err := persist.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()
	return persist.NewPGStore(db), db.Close, nil
}

// buildTransport returns the configured transport. A queue transport gets a
// writer goroutine that logs outbound messages until disconnect.
func buildTransport(cfg config.TransportConfig, log *zap.Logger) transport.Transport {
	if cfg.Kind == "queue" {
		q := transport.NewQueue(cfg.InQueueSize, cfg.OutQueueSize, cfg.Connected, log.Named("queue"))
		go func() {
			for {
				select {
				case msg := <-q.Outbound():
					log.Debug("outbound", zap.String("msg", msg.DebugString()))
				case <-q.Done():
					return
				}
			}
		}()
		return q
	}
	if cfg.Connected {
		return transport.NewConnectedLocalChannel()
	}
	return transport.NewLocalChannel()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
