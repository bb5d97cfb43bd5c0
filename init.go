package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/refscan/internal/config"
)

const configHeader = `# refscan configuration.
# Load it with: refscan --config <this file> <sourcepath> <searchpath>
# Flags given on the command line override these values.
# exclude drops source files whose name, without extension, ends with
# one of the listed suffixes.
`

// newInitCommand returns the `refscan init` subcommand, which writes a
// starter config file holding the default settings.
func newInitCommand(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Long: `Write a config file holding refscan's default settings.

path defaults to ./` + config.DefaultFile + `. An existing file is left untouched
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFile
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(path, dryRun, force, stdout, stderr)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config without writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func runInit(path string, dryRun, force bool, stdout, stderr io.Writer) error {
	data, err := generateConfig()
	if err != nil {
		return fmt.Errorf("generating config: %w", err)
	}

	if dryRun {
		_, _ = stdout.Write(data)
		return nil
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote refscan config to %s\n", path)
	return nil
}

// generateConfig returns the commented default config document.
func generateConfig() ([]byte, error) {
	body, err := config.Defaults().Marshal()
	if err != nil {
		return nil, err
	}
	return append([]byte(configHeader), body...), nil
}
