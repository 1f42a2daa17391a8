package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/pwm/internal/encoding"
)

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "presets",
		Short:         "List the named alphabets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(rootOpts, cmd)
		},
	}

	return cmd
}

// presetView describes one named alphabet.
type presetView struct {
	Name          string  `json:"name"`
	Alphabet      string  `json:"alphabet"`
	Symbols       int     `json:"symbols"`
	BitsPerSymbol float64 `json:"bits_per_symbol"`
}

func runPresets(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	names := encoding.PresetNames()
	views := make([]presetView, 0, len(names))
	for _, name := range names {
		alphabet, _ := encoding.Preset(name)
		distinct := encoding.DistinctSymbols(alphabet)
		views = append(views, presetView{
			Name:          name,
			Alphabet:      alphabet,
			Symbols:       distinct,
			BitsPerSymbol: math.Log2(float64(distinct)),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(views)
	}
	for _, v := range views {
		fmt.Fprintf(formatter.Writer, "%-13s %2d symbols  %.2f bits/symbol  %s\n",
			v.Name, v.Symbols, v.BitsPerSymbol, v.Alphabet)
	}
	return nil
}
