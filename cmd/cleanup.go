package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"veestributes/config"
	"veestributes/core/task"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale scratch files and partial uploads",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		removed, err := task.CleanupOldFiles(cfg.ScratchDir, cfg.ScratchMaxAge, "")
		if err != nil {
			log.Fatalf("Scratch cleanup failed: %v", err)
		}
		log.Printf("Removed %d scratch files from %s", removed, cfg.ScratchDir)

		for _, dir := range []string{cfg.AudioUploadDir, cfg.ArtworkDir} {
			removed, err := task.CleanupOldFiles(dir, cfg.UploadStaleMaxAge, "*.tmp")
			if err != nil {
				log.Fatalf("Upload cleanup failed for %s: %v", dir, err)
			}
			log.Printf("Removed %d stale uploads from %s", removed, dir)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
