package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/carefinder/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source-url",
				Usage: "Published sheet CSV URL to build the directory from",
			},
			&cli.StringFlag{
				Name:  "source-file",
				Usage: "Local CSV file to build the directory from",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c.String("config"), c.String("source-url"), c.String("source-file"), c.Bool("force"))
		},
	}
}

// initConfig initializes the configuration file
func initConfig(configPath, sourceURL, sourceFile string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", configPath)
	}

	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return err
	}
	cfg.SourceURL = sourceURL
	cfg.SourceFile = sourceFile
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration initialized at %s\n", configPath)
	if !cfg.HasSource() {
		fmt.Println("Set source_url or source_file before running fetch.")
	}
	return nil
}
