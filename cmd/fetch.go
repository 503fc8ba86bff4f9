package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/query"
	"github.com/rubiojr/carefinder/pkg/source"
	"github.com/urfave/cli/v3"
)

// FetchCommand creates the fetch command
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the provider sheet and store a snapshot",
		Action: func(ctx context.Context, c *cli.Command) error {
			return fetchData(ctx, c.String("config"))
		},
	}
}

// fetchData loads the configured source once and stores a snapshot of it.
func fetchData(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.HasSource() {
		return fmt.Errorf("%w: set source_url or source_file in %s", source.ErrNoSource, configPath)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	wh := newWarehouse(cfg, store, nil)
	ds, err := wh.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("fetching providers: %w", err)
	}

	var out string
	out += titleStyle.Render(fmt.Sprintf("Fetched %s providers", formatNumber(len(ds.Records)))) + "\n"
	out += metaStyle.Render(fmt.Sprintf("source: %s • snapshot %s • synced %s", ds.Source, ds.SnapshotID, ds.SyncedLabel())) + "\n"
	if top := query.TopCategories(ds.Records, cfg.TopCategories); len(top) > 0 {
		out += headerStyle.Render("Top categories") + "\n"
		for _, c := range top {
			out += "  " + c + "\n"
		}
	}
	fmt.Print(out)
	return nil
}
