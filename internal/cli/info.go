package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/EgorLis/musicbot/internal/bot"
	"github.com/EgorLis/musicbot/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the slash commands the bot registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMMAND\tREPLY\tDESCRIPTION")
			for _, c := range bot.CommandTable() {
				reply := "private"
				if c.Public {
					reply = "public"
				}
				fmt.Fprintf(w, "/%s\t%s\t%s\n", c.Name, reply, c.Description)
			}
			return w.Flush()
		},
	}
}
