package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/source"
	"github.com/rubiojr/carefinder/pkg/storage"
	"github.com/rubiojr/carefinder/pkg/warehouse"
)

// daemon keeps a warehouse refreshed for the long running commands. It
// reloads the configuration on SIGHUP or when the config file changes, and
// refreshes as soon as a local source file is rewritten.
type daemon struct {
	configPath string
	store      *storage.SnapshotStore
	hub        *realtime.Hub
	wh         *warehouse.Warehouse

	// ctx scopes every watch and refresh the daemon starts. close cancels
	// it and waits on wg before the warehouse and store go away.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	cfg         *config.Config
	started     bool
	closed      bool
	stopWatchFn context.CancelFunc
}

func startDaemon(ctx context.Context, configPath string, hub *realtime.Hub) (*daemon, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &daemon{
		ctx:        ctx,
		cancel:     cancel,
		configPath: configPath,
		store:      store,
		hub:        hub,
		cfg:        cfg,
		wh:         newWarehouse(cfg, store, hub),
	}

	l := log.ForService("daemon")
	if _, err := d.wh.Restore(ctx); err != nil && !errors.Is(err, storage.ErrNoSnapshot) {
		l.Warnf("failed to restore snapshot: %v", err)
	}
	d.start(ctx)
	d.watchSourceFile(ctx, cfg)

	d.mu.Lock()
	d.goLocked(func() {
		if err := source.Watch(ctx, configPath, func() { d.reload(ctx) }); err != nil {
			l.Warnf("not watching config file: %v", err)
		}
	})
	d.mu.Unlock()

	return d, nil
}

// goLocked runs fn on a goroutine that close waits for. d.mu must be held.
func (d *daemon) goLocked(fn func()) {
	if d.closed {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

func (d *daemon) start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	err := d.wh.Start(ctx)
	if errors.Is(err, source.ErrNoSource) {
		log.ForService("daemon").Warnf("no source configured, serving the stored snapshot only")
		return
	}
	if err != nil {
		log.ForService("daemon").Errorf("starting warehouse: %v", err)
		return
	}
	d.started = true
}

// watchSourceFile replaces the source file watch with one for cfg.
func (d *daemon) watchSourceFile(ctx context.Context, cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopWatchFn != nil {
		d.stopWatchFn()
		d.stopWatchFn = nil
	}
	if cfg.SourceFile == "" || d.closed {
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	d.stopWatchFn = cancel
	path := cfg.SourceFile
	d.goLocked(func() {
		err := source.Watch(watchCtx, path, func() {
			log.ForService("daemon").Infof("source file %s changed, refreshing", path)
			if _, err := d.wh.Refresh(watchCtx); err != nil {
				log.ForService("daemon").Errorf("refresh after source change failed: %v", err)
			}
		})
		if err != nil {
			log.ForService("daemon").Warnf("not watching source file: %v", err)
		}
	})
}

// reload re-reads the configuration and points the warehouse at the source
// it names. A config that fails to load leaves the current one in place.
func (d *daemon) reload(ctx context.Context) {
	l := log.ForService("daemon")
	cfg, err := config.LoadConfig(d.configPath)
	if err != nil {
		l.Errorf("failed to reload configuration: %v", err)
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.cfg = cfg
	d.mu.Unlock()

	src, err := source.New(cfg)
	if err != nil {
		l.Warnf("reloaded configuration has no source: %v", err)
		d.watchSourceFile(ctx, cfg)
		return
	}
	d.wh.SetSource(src)
	d.watchSourceFile(ctx, cfg)
	l.Infof("configuration reloaded, source: %s", src.Name())

	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		d.start(ctx)
		return
	}
	d.mu.Lock()
	d.goLocked(func() {
		if _, err := d.wh.Refresh(ctx); err != nil {
			l.Errorf("refresh after reload failed: %v", err)
		}
	})
	d.mu.Unlock()
}

func (d *daemon) currentConfig() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// wait blocks until SIGINT, SIGTERM or ctx cancellation, reloading on
// SIGHUP.
func (d *daemon) wait(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				log.ForService("daemon").Infof("received SIGHUP, reloading configuration")
				d.reload(ctx)
				continue
			}
			fmt.Println("\nShutting down...")
			return
		}
	}
}

// close stops the watches and any refresh they started before the
// warehouse and the store are shut down.
func (d *daemon) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.stopWatchFn != nil {
		d.stopWatchFn()
	}
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.wh.Stop()
	closeStore(d.store)
}
