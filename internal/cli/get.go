package cli

import (
	"github.com/spf13/cobra"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print the key for a record",
		Long: `Look up a record by exact name and print its derived key.

Exits with status 1 if no record has that name.

Example:
  pwm get example.com
  echo "$MASTER" | pwm get example.com --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], cmd)
		},
	}

	return cmd
}

func runGet(opts *GetOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	_, m, err := openStore(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer closeStore(m)

	r, err := m.Get(ctx, name)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Found %s", r)

	return printKey(formatter, cmd, r)
}
