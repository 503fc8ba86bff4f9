package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	flags := append(queryFlags(),
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort column, optionally with :asc or :desc (default rating, best first)",
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number, starting at 1",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Results per page (defaults to page_size from the config)",
		},
		&cli.BoolFlag{
			Name:  "no-pager",
			Usage: "Disable pager and output directly to terminal",
			Value: false,
		},
	)
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the provider directory",
		ArgsUsage: "[query...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			state, err := queryStateFromFlags(c)
			if err != nil {
				return err
			}
			state.GlobalQuery = search.EffectiveQuery(append([]string{state.GlobalQuery}, c.Args().Slice()...)...)
			if s := c.String("sort"); s != "" {
				sort, err := columns.ParseSort(s)
				if err != nil {
					return err
				}
				state.Sort = sort
			}
			state.PageIndex = max(c.Int("page")-1, 0)
			state.PageSize = c.Int("page-size")
			return searchProviders(ctx, c.String("config"), state, c.Bool("offline"), c.Bool("no-pager"))
		},
	}
}

// searchProviders runs one search and prints a page of provider cards.
func searchProviders(ctx context.Context, configPath string, state search.QueryState, offline, noPager bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if state.PageSize <= 0 {
		state.PageSize = cfg.PageSize
	}
	state.PageSize = min(state.PageSize, search.MaxPageSize)

	ds, err := loadDataset(ctx, cfg, offline)
	if err != nil {
		return err
	}

	results, err := search.NewSearchService(ds).Search(state)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	return display(formatResults(results, ds.SyncedLabel()), noPager)
}
