package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/pwm/internal/manager"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [db-path]",
		Short: "Create the record store and config file",
		Long: `Create the record store and write the config file pointing at it.

Without an argument the database goes next to the config file. Running init
on an existing store is safe; it only applies pending schema migrations.

Example:
  pwm init
  pwm init ~/sync/pwm.sqlite`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dbPath string
			if len(args) == 1 {
				dbPath = args[0]
			}
			return runInit(opts, dbPath, cmd)
		},
	}

	return cmd
}

func runInit(opts *InitOptions, dbPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.FailWith(ErrCodeConfig, ExitCommandError, err)
	}

	if dbPath != "" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return formatter.FailWith(ErrCodeGeneric, ExitCommandError, err)
		}
		cfg.Database = abs
	}

	// Refuse to bootstrap over a file that is not a store.
	if _, err := os.Stat(cfg.Database); err == nil {
		existing, err := manager.Open(ctx, cfg.Database)
		if err != nil {
			return formatter.FailWith(ErrCodeStorage, ExitCommandError,
				fmt.Errorf("%s exists and is not a pwm store", cfg.Database))
		}
		closeStore(existing)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o700); err != nil {
		return formatter.FailWith(ErrCodeGeneric, ExitCommandError, err)
	}

	m := manager.New()
	if err := m.Bootstrap(ctx, cfg.Database); err != nil {
		return formatter.Fail(err)
	}
	defer closeStore(m)
	formatter.VerboseLog("Store ready at %s", cfg.Database)

	if err := cfg.Save(); err != nil {
		return formatter.FailWith(ErrCodeConfig, ExitCommandError, err)
	}
	formatter.VerboseLog("Wrote config %s", cfg.Path())

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{
			"database": cfg.Database,
			"config":   cfg.Path(),
		})
	}
	return formatter.Success(fmt.Sprintf("Initialised store at %s", cfg.Database))
}
