package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Keep the provider snapshot refreshed in the background",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

// serve refreshes the directory on the configured interval until
// interrupted. The web command does the same while also serving pages.
func serve(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := startDaemon(ctx, configPath, nil)
	if err != nil {
		return err
	}
	defer d.close()

	cfg := d.currentConfig()
	fmt.Printf("Refreshing every %s. Press Ctrl+C to stop, send SIGHUP to reload, or modify config file for automatic reload.\n",
		cfg.RefreshInterval.Duration)

	d.wait(ctx)
	return nil
}
