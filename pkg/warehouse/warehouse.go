package warehouse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/source"
	"github.com/rubiojr/carefinder/pkg/storage"
)

// SyncedLayout formats the "Last synced" label.
const SyncedLayout = "Jan 2, 2006, 3:04 PM"

type Config struct {
	// RefreshInterval is how often the source is loaded again. Zero disables
	// scheduled refreshes.
	RefreshInterval time.Duration
	// SnapshotKeep is how many snapshots survive pruning after a refresh.
	SnapshotKeep int
}

// Store is the part of the snapshot store the warehouse needs.
type Store interface {
	Save(ctx context.Context, source string, records []provider.Provider) (storage.SnapshotInfo, error)
	Latest(ctx context.Context) (*storage.Snapshot, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Dataset is an immutable provider directory as of SyncedAt.
type Dataset struct {
	Records      []provider.Provider
	Source       string
	SyncedAt     time.Time
	SnapshotID   string
	FromSnapshot bool
}

// Providers implements search.Dataset.
func (d *Dataset) Providers() []provider.Provider {
	if d == nil {
		return nil
	}
	return d.Records
}

// SyncedLabel renders SyncedAt for display, or "never" for an empty
// warehouse.
func (d *Dataset) SyncedLabel() string {
	if d == nil || d.SyncedAt.IsZero() {
		return "never"
	}
	return d.SyncedAt.Local().Format(SyncedLayout)
}

// Warehouse owns the current dataset and keeps it fresh. Readers get the
// dataset through Current, which never blocks on a refresh.
type Warehouse struct {
	config Config
	store  Store
	hub    *realtime.Hub

	source    atomic.Value // sourceHolder
	current   atomic.Pointer[Dataset]
	refreshMu sync.Mutex

	stopCh    chan struct{}
	ctxCancel context.CancelFunc
	mu        sync.Mutex
	wg        sync.WaitGroup
	running   bool
}

type sourceHolder struct {
	src source.Source
}

// NewWarehouse builds a warehouse. store and hub may be nil.
func NewWarehouse(config Config, src source.Source, store Store, hub *realtime.Hub) *Warehouse {
	w := &Warehouse{
		config: config,
		store:  store,
		hub:    hub,
		stopCh: make(chan struct{}),
	}
	w.source.Store(sourceHolder{src: src})
	w.current.Store(&Dataset{})
	return w
}

// Current returns the dataset being served. It is never nil.
func (w *Warehouse) Current() *Dataset {
	return w.current.Load()
}

// Providers implements search.Dataset over the current dataset.
func (w *Warehouse) Providers() []provider.Provider {
	return w.Current().Records
}

// SetSource swaps the source used by the next refresh.
func (w *Warehouse) SetSource(src source.Source) {
	w.source.Store(sourceHolder{src: src})
}

func (w *Warehouse) currentSource() source.Source {
	return w.source.Load().(sourceHolder).src
}

// Restore serves the newest stored snapshot until the first refresh
// succeeds.
func (w *Warehouse) Restore(ctx context.Context) (*Dataset, error) {
	if w.store == nil {
		return nil, storage.ErrNoSnapshot
	}
	snap, err := w.store.Latest(ctx)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		Records:      snap.Records,
		Source:       snap.Source,
		SyncedAt:     snap.CreatedAt,
		SnapshotID:   snap.ID,
		FromSnapshot: true,
	}
	w.publish(ds)
	return ds, nil
}

// Refresh loads the source and makes the result current. When the source
// fails and nothing has been loaded yet, the newest snapshot is served
// instead and the source error is still returned.
func (w *Warehouse) Refresh(ctx context.Context) (*Dataset, error) {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	l := log.ForService("warehouse")
	src := w.currentSource()
	if src == nil {
		return nil, source.ErrNoSource
	}

	start := time.Now()
	records, err := src.Load(ctx)
	if err != nil {
		err = fmt.Errorf("loading %s source: %w", src.Name(), err)
		if w.hub != nil {
			w.hub.Broadcast(realtime.NewErrorEvent(err))
		}
		if w.Current().SyncedAt.IsZero() {
			if ds, rerr := w.Restore(ctx); rerr == nil {
				l.Warnf("%v; serving snapshot %s from %s", err, ds.SnapshotID, ds.SyncedLabel())
			} else if !errors.Is(rerr, storage.ErrNoSnapshot) {
				l.Errorf("restoring snapshot: %v", rerr)
			}
		}
		return nil, err
	}

	ds := &Dataset{
		Records:  records,
		Source:   src.Name(),
		SyncedAt: time.Now(),
	}

	if w.store != nil {
		info, err := w.store.Save(ctx, ds.Source, records)
		if err != nil {
			l.Errorf("saving snapshot: %v", err)
		} else {
			ds.SnapshotID = info.ID
			if w.config.SnapshotKeep > 0 {
				if n, err := w.store.Prune(ctx, w.config.SnapshotKeep); err != nil {
					l.Warnf("pruning snapshots: %v", err)
				} else if n > 0 {
					l.Debugf("pruned %d snapshots", n)
				}
			}
		}
	}

	w.publish(ds)
	l.Infof("loaded %d providers from %s in %v", len(records), ds.Source, time.Since(start).Round(time.Millisecond))
	return ds, nil
}

func (w *Warehouse) publish(ds *Dataset) {
	w.current.Store(ds)
	if w.hub == nil {
		return
	}
	w.hub.Broadcast(realtime.NewDatasetEvent(realtime.DatasetEvent{
		SnapshotID:   ds.SnapshotID,
		Source:       ds.Source,
		Count:        len(ds.Records),
		SyncedAt:     ds.SyncedAt,
		FromSnapshot: ds.FromSnapshot,
	}))
}

// Start runs an initial refresh in the background and then refreshes on
// every RefreshInterval tick until Stop or ctx cancellation.
func (w *Warehouse) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("warehouse is already running")
	}
	if w.currentSource() == nil {
		return source.ErrNoSource
	}

	ctx, w.ctxCancel = context.WithCancel(ctx)
	w.stopCh = make(chan struct{})
	w.running = true

	w.wg.Add(1)
	go w.run(ctx)

	log.ForService("warehouse").Infof("started, refresh interval: %v", w.config.RefreshInterval)
	return nil
}

func (w *Warehouse) run(ctx context.Context) {
	defer w.wg.Done()
	l := log.ForService("warehouse")

	if _, err := w.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Errorf("initial refresh failed: %v", err)
	}

	if w.config.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			l.Debugf("running scheduled refresh")
			if _, err := w.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				l.Errorf("scheduled refresh failed: %v", err)
			}
		}
	}
}

// Stop halts the refresh loop and waits for an in-flight refresh to finish.
func (w *Warehouse) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.ctxCancel()
	w.mu.Unlock()

	w.wg.Wait()
	log.ForService("warehouse").Infof("stopped")
}
