package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactivity/internal/config"
	"github.com/vango-dev/reactivity/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name   string
		update bool
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a reactivity.json with default settings",
		Long: `Create reactivity.json in DIR, or the working directory.

An existing file is never overwritten. With --update it is loaded,
settings it leaves out are filled with defaults, and it is written back.

Examples:
  reactivity init
  reactivity init ./app --name=app
  reactivity init --update`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path, err := initConfig(dir, name, update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Runtime name to record")
	cmd.Flags().BoolVarP(&update, "update", "u", false, "Fill in an existing reactivity.json instead of failing")

	return cmd
}

// initConfig writes dir's reactivity.json and returns its path.
func initConfig(dir, name string, update bool) (string, error) {
	if config.Exists(dir) {
		if !update {
			return "", errors.New("C123").
				WithDetail(config.ConfigFileName + " already exists in " + dir)
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return "", err
		}
		if name != "" {
			cfg.Name = name
		}
		return cfg.Path(), cfg.Save()
	}

	cfg := config.New()
	if name != "" {
		cfg.Name = name
	}
	path := filepath.Join(dir, config.ConfigFileName)
	return path, cfg.SaveTo(path)
}
