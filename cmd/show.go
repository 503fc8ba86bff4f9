package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/query"
	"github.com/urfave/cli/v3"
)

// ShowCommand creates the show command
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show every detail of the providers whose name matches",
		ArgsUsage: "<provider name>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Show at most N matching providers",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use the latest stored snapshot instead of the source",
			},
			&cli.BoolFlag{
				Name:  "no-pager",
				Usage: "Disable pager and output directly to terminal",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if name == "" {
				return fmt.Errorf("a provider name is required")
			}
			return showProviders(ctx, c.String("config"), name, c.Int("limit"), c.Bool("offline"), c.Bool("no-pager"))
		},
	}
}

func showProviders(ctx context.Context, configPath, name string, limit int, offline, noPager bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ds, err := loadDataset(ctx, cfg, offline)
	if err != nil {
		return err
	}

	matches := matchProviderNames(ds.Records, name)
	if len(matches) == 0 {
		fmt.Println(noDataStyle.Render(fmt.Sprintf("No provider name matches %q.", name)))
		return nil
	}
	return display(formatDetails(matches, limit), noPager)
}

// matchProviderNames returns the records whose name holds every word of name.
func matchProviderNames(records []provider.Provider, name string) []provider.Provider {
	q := query.Compile(name)
	var out []provider.Provider
	for _, p := range records {
		if q.MatchText(p.ProviderName) {
			out = append(out, p)
		}
	}
	return out
}

func formatDetails(matches []provider.Provider, limit int) string {
	var b strings.Builder
	shown := matches
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, p := range shown {
		b.WriteString(formatProviderDetail(p))
		b.WriteString("\n")
	}
	if len(shown) < len(matches) {
		b.WriteString(metaStyle.Render(fmt.Sprintf("%d more providers match, narrow the name or raise --limit.", len(matches)-len(shown))))
		b.WriteString("\n")
	}
	return b.String()
}
