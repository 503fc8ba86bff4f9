package main

import (
	"context"
	"log"
	"os"

	"github.com/rubiojr/carefinder/cmd"
	"github.com/rubiojr/carefinder/pkg/config"
	cflog "github.com/rubiojr/carefinder/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "carefinder",
		Usage: "Search, filter and export a healthcare provider directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cflog.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.FetchCommand(),
			cmd.SearchCommand(),
			cmd.ShowCommand(),
			cmd.CategoriesCommand(),
			cmd.ExportCommand(),
			cmd.SnapshotsCommand(),
			cmd.ServeCommand(),
			cmd.WebCommand(),
			cmd.MigrateCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
