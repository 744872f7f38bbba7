package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wstask/internal/config"
	"github.com/vango-dev/wstask/internal/errors"
)

func initCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default wstask.json",
		Long: `Write a wstask.json holding every default setting.

Examples:
  wstask init
  wstask init ./deploy --force`,
		Args: cobra.MaximumNArgs(1),
		// The file being written may not exist or be valid yet.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setupColors()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing wstask.json")

	return cmd
}

func (a *app) runInit(dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Newf(errors.CategoryCLI, "%s already exists", path).
			WithSuggestion("Pass --force to overwrite it")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("W101").Wrap(err)
	}
	if err := config.New().SaveTo(path); err != nil {
		return err
	}

	a.success("Wrote %s", path)
	return nil
}
