package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/log"
	"github.com/rubiojr/carefinder/pkg/realtime"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/rubiojr/carefinder/pkg/source"
	"github.com/rubiojr/carefinder/pkg/storage"
	"github.com/rubiojr/carefinder/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// queryFlags are shared by the commands that select providers.
func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "what",
			Usage: "Service, specialty or provider name",
		},
		&cli.StringFlag{
			Name:  "where",
			Usage: "City, neighborhood or address",
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Free text query, combined with --what and --where",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Only providers listing this category",
		},
		&cli.StringSliceFlag{
			Name:  "filter",
			Usage: "Column filter as column=value. Can be used multiple times",
		},
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "Use the latest stored snapshot instead of the source",
			Value: false,
		},
	}
}

// queryStateFromFlags builds a QueryState from the shared query flags.
func queryStateFromFlags(c *cli.Command) (search.QueryState, error) {
	state := search.DefaultQueryState()
	state.GlobalQuery = search.EffectiveQuery(c.String("query"), c.String("what"), c.String("where"))

	if cat := strings.TrimSpace(c.String("category")); cat != "" {
		state.ColumnFilters[columns.Categories] = cat
	}
	for _, f := range c.StringSlice("filter") {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return state, fmt.Errorf("invalid filter %q, expected column=value", f)
		}
		col, err := columns.Lookup(name)
		if err != nil {
			return state, err
		}
		if v := strings.TrimSpace(value); v != "" {
			state.ColumnFilters[col.ID] = v
		}
	}
	return state, nil
}

// openStore opens the snapshot store, or returns nil when none is configured.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SnapshotStore, error) {
	if cfg.SnapshotPath == "" {
		return nil, nil
	}
	store, err := storage.Open(ctx, cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.SnapshotStore) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.ForService("storage").Warnf("failed to close snapshot store: %v", err)
	}
}

// newWarehouse wires the configured source, the snapshot store and the hub.
// A missing source is not an error here: the warehouse can still serve a
// snapshot.
func newWarehouse(cfg *config.Config, store *storage.SnapshotStore, hub *realtime.Hub) *warehouse.Warehouse {
	src, err := source.New(cfg)
	if err != nil {
		src = nil
	}
	var st warehouse.Store
	if store != nil {
		st = store
	}
	return warehouse.NewWarehouse(warehouse.Config{
		RefreshInterval: cfg.RefreshInterval.Duration,
		SnapshotKeep:    cfg.SnapshotKeep,
	}, src, st, hub)
}

// loadDataset returns the directory for one-shot commands. It loads the
// source unless offline is set, and falls back to the newest snapshot.
func loadDataset(ctx context.Context, cfg *config.Config, offline bool) (*warehouse.Dataset, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore(store)

	wh := newWarehouse(cfg, store, nil)

	if offline || !cfg.HasSource() {
		ds, err := wh.Restore(ctx)
		if errors.Is(err, storage.ErrNoSnapshot) {
			if !cfg.HasSource() {
				return nil, fmt.Errorf("%w: set source_url or source_file in the config", source.ErrNoSource)
			}
			return nil, fmt.Errorf("no snapshot stored yet, run fetch first")
		}
		return ds, err
	}

	ds, err := wh.Refresh(ctx)
	if err != nil {
		if cur := wh.Current(); cur.FromSnapshot {
			return cur, nil
		}
		return nil, err
	}
	return ds, nil
}
