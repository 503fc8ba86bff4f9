package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/query"
	"github.com/urfave/cli/v3"
)

// CategoriesCommand creates the categories command
func CategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List provider categories by how many providers offer them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Only show the N most common categories (0 shows all)",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use the latest stored snapshot instead of the source",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listCategories(ctx, c.String("config"), c.Int("limit"), c.Bool("offline"))
		},
	}
}

func listCategories(ctx context.Context, configPath string, limit int, offline bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ds, err := loadDataset(ctx, cfg, offline)
	if err != nil {
		return err
	}

	counts := query.CountCategories(ds.Records)
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	if len(counts) == 0 {
		fmt.Println(noDataStyle.Render("No categories found."))
		return nil
	}

	width := 0
	for _, c := range counts {
		width = max(width, len(c.Label))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d categories across %s providers", len(counts), formatNumber(len(ds.Records)))))
	b.WriteString("\n")
	for _, c := range counts {
		fmt.Fprintf(&b, "  %-*s %s\n", width, c.Label, metaStyle.Render(fmt.Sprintf("%d", c.Count)))
	}
	fmt.Print(b.String())
	return nil
}
