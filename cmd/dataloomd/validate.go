package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dataloomhq/dataloom/internal/config"
)

// ValidateConfigCmd loads and validates a config file. On success it
// prints "<path>: valid", or with --print-config the expanded
// configuration (defaults applied, env vars resolved) as YAML.
type ValidateConfigCmd struct {
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration."`
}

func (c *ValidateConfigCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: invalid: %s\n", cli.Config, err)
		return fmt.Errorf("config validation failed")
	}

	if c.PrintConfig {
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config as yaml: %w", err)
		}
		return nil
	}

	fmt.Printf("%s: valid\n", cli.Config)
	return nil
}
