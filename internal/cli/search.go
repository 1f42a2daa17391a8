package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "List records whose name contains the query",
		Long: `List records whose name contains the query, ignoring case.

Exits with status 1 if nothing matches.

Example:
  pwm search example`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	return cmd
}

func runSearch(opts *SearchOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	_, m, err := openStore(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer closeStore(m)

	results, err := m.Search(ctx, query)
	if err != nil {
		return formatter.Fail(err)
	}
	if len(results) == 0 {
		return formatter.FailWith(ErrCodeNoMatches, ExitFailure, fmt.Errorf("no records match %q", query))
	}

	views := make([]recordView, len(results))
	for i, r := range results {
		views[i] = newRecordView(r, "")
	}

	if formatter.Format == "json" {
		return formatter.Success(views)
	}
	for _, v := range views {
		fmt.Fprintln(formatter.Writer, v)
	}
	return nil
}
