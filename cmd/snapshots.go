package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/urfave/cli/v3"
)

// SnapshotsCommand creates the snapshots command
func SnapshotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshots",
		Usage: "List stored dataset snapshots",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of snapshots to show (0 shows all)",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "prune",
				Usage: "Delete all but the N newest snapshots",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listSnapshots(ctx, c.String("config"), c.Int("limit"), c.Int("prune"))
		},
	}
}

func listSnapshots(ctx context.Context, configPath string, limit, prune int) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("snapshot_path is not configured")
	}
	defer closeStore(store)

	if prune > 0 {
		n, err := store.Prune(ctx, prune)
		if err != nil {
			return fmt.Errorf("pruning snapshots: %w", err)
		}
		fmt.Printf("Pruned %d snapshots\n", n)
	}

	infos, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println(noDataStyle.Render("No snapshots stored yet. Run fetch to create one."))
		return nil
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Snapshots in %s", cfg.SnapshotPath)))
	b.WriteString("\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "  %s  %-6s %6s providers  %s  %s\n",
			info.ID, info.Source, formatNumber(info.Count),
			metaStyle.Render(formatBytes(info.Size)),
			formatTime(info.CreatedAt))
	}
	fmt.Print(b.String())
	return nil
}

func formatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
