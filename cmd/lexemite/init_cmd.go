package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/Danoha/lexemite/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a lexemite.toml with the default configuration",
		Description: `Creates a lexemite.toml configuration file in the current directory
with the default plugins and options. Use --output to choose another location.

Examples:
  lexemite init                             # Creates lexemite.toml
  lexemite init -o .lexemite/lexemite.toml  # Creates config in .lexemite directory
  lexemite init --force                     # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   config.SearchNames[0],
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	color.Green("Created %s", outputPath)
	fmt.Fprintln(c.App.Writer, "Edit this file to customize analysis settings.")
	return nil
}

func generateDefaultConfig() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Lexemite configuration\n\n")

	enc := toml.NewEncoder(&buf).Order(toml.OrderPreserve).ArraysWithOneElementPerLine(true)
	if err := enc.Encode(config.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	return buf.Bytes(), nil
}
