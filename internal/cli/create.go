package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/pwm/internal/record"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Length   int    // 0 means the configured default
	Alphabet string // empty means the configured default
	Username string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a record and print its key",
		Long: `Create a record with a fresh random salt, then derive and print its key.

The alphabet is a preset name (see 'pwm presets') or a literal set of
characters. The master password is read from the terminal, or from the
first line of stdin when stdin is not a terminal.

Example:
  pwm create example.com
  pwm create bank.example -l 24 -c alphanumeric -u alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Length, "length", "l", 0, "key length (default from config)")
	cmd.Flags().StringVarP(&opts.Alphabet, "charset", "c", "", "alphabet preset or literal characters (default from config)")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username to remember for this record")

	return cmd
}

func runCreate(opts *CreateOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	cfg, m, err := openStore(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer closeStore(m)

	recOpts := cfg.RecordOptions()
	if opts.Length != 0 {
		recOpts.KeyLength = opts.Length
	}
	if opts.Alphabet != "" {
		recOpts.Alphabet = opts.Alphabet
	}
	recOpts.Username = opts.Username

	r, err := m.Create(ctx, name, recOpts)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Created %s", r)

	return printKey(formatter, cmd, r)
}

// printKey prompts for the master password and writes the derived key.
func printKey(formatter *OutputFormatter, cmd *cobra.Command, r *record.Record) error {
	secret, err := readMasterPassword(cmd)
	if err != nil {
		return formatter.FailWith(ErrCodePassword, ExitCommandError, err)
	}

	key, err := r.DeriveKey(secret)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Entropy: %.1f bits", r.Entropy())

	if formatter.Format == "json" {
		return formatter.Success(newRecordView(r, key))
	}
	return formatter.Success(key)
}
