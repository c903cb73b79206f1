package cli

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// unitInfo is one row of the units listing.
type unitInfo struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "units",
		Short:         "List registered units and their aliases",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUnits(cmd, rootOpts)
		},
	}
}

func listUnits(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	r := opts.resolver(cfg.TagText, opts.logger(cmd.ErrOrStderr()))

	infos := []unitInfo{}
	for _, name := range r.Names() {
		aliases := r.Aliases(name)
		if aliases == nil {
			aliases = []string{}
		}
		infos = append(infos, unitInfo{Name: name, Aliases: aliases})
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Success(infos)
	}

	table := tablewriter.NewTable(out.Writer,
		tablewriter.WithHeader([]string{"Unit", "Aliases"}),
	)
	for _, info := range infos {
		table.Append([]string{info.Name, strings.Join(info.Aliases, ", ")})
	}
	return table.Render()
}
