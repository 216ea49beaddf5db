package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spendwise-dev/spendwise/internal/config"
)

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new spendwise workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "your name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(name)
	dirs := []string{cfg.Import.InboxDir, cfg.Import.ProcessedDir, cfg.Import.LogDir}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	a, err := newApp(cmd, cfg, dir)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.accts.CreateDefaults(a.ctx, cfg.User.ID)
	if err != nil {
		return fmt.Errorf("creating default accounts: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized spendwise at %s (user %s)\n", dir, cfg.User.ID)
	for _, acct := range created {
		fmt.Fprintf(out, "  account %s\n", acct.Name)
	}
	return nil
}
