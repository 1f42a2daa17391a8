package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pwm/internal/manager"
)

// ModifyOptions holds flags for the modify command.
type ModifyOptions struct {
	*RootOptions
	NewSalt  bool
	Username string
}

// NewModifyCommand creates the modify command.
func NewModifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ModifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "modify <name>",
		Short: "Change a record's salt or username",
		Long: `Change a stored record.

--new-salt replaces the salt, which changes the record's key; use it when a
site's password has to be rotated. --username replaces the remembered
username and leaves the key alone.

Example:
  pwm modify example.com --new-salt
  pwm modify example.com --username alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModify(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NewSalt, "new-salt", false, "generate a new salt")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "set the username")

	return cmd
}

func runModify(opts *ModifyOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	changes := manager.ModifyOptions{RegenerateSalt: opts.NewSalt}
	if cmd.Flags().Changed("username") {
		username := opts.Username
		changes.Username = &username
	}
	if !changes.RegenerateSalt && changes.Username == nil {
		return formatter.FailWith(ErrCodeInvalidInput, ExitCommandError,
			errors.New("nothing to modify: pass --new-salt or --username"))
	}

	_, m, err := openStore(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer closeStore(m)

	r, err := m.Modify(ctx, name, changes)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Modified %s", r)

	if formatter.Format == "json" {
		return formatter.Success(newRecordView(r, ""))
	}
	if changes.RegenerateSalt {
		return formatter.Success(fmt.Sprintf("Modified %s: new salt, key changed", r.Name))
	}
	return formatter.Success(fmt.Sprintf("Modified %s", r.Name))
}
