package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "musicbot",
		Short:         "Discord music bot: queues per server, plays through FFmpeg",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with settings (optional)")

	cmd.AddCommand(newRunCmd(&envFile))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCommandsCmd())
	return cmd
}
