package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/export"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	flags := append(queryFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the CSV to this file instead of stdout",
		},
	)
	return &cli.Command{
		Name:      "export",
		Usage:     "Export matching providers as CSV",
		ArgsUsage: "[query...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			state, err := queryStateFromFlags(c)
			if err != nil {
				return err
			}
			state.GlobalQuery = search.EffectiveQuery(append([]string{state.GlobalQuery}, c.Args().Slice()...)...)
			return exportProviders(ctx, c.String("config"), state, c.Bool("offline"), c.String("output"))
		},
	}
}

// exportProviders writes every matching provider in source order.
func exportProviders(ctx context.Context, configPath string, state search.QueryState, offline bool, output string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ds, err := loadDataset(ctx, cfg, offline)
	if err != nil {
		return err
	}

	records, err := search.NewSearchService(ds).Filter(state)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := export.Serialize(w, records); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported %d providers to %s\n", len(records), output)
	}
	return nil
}
