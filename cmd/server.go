package cmd

import (
	"github.com/spf13/cobra"

	"veestributes/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Veestributes HTTP server",
	Long:  `Start the HTTP server, background workers and periodic cleanup.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
