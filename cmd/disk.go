package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Show free space on the storage volume",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "base:    %s\n", fileManager.BaseDir())
		free, ok := fileManager.AvailableDiskSpace()
		if !ok {
			fmt.Fprintln(out, "free:    unknown")
		} else {
			fmt.Fprintf(out, "free:    %s\n", formatSize(free))
		}
		fmt.Fprintf(out, "reserve: %s\n", formatSize(cfg.DiskReserveBytes))
	},
}

func init() {
	rootCmd.AddCommand(diskCmd)
}

// formatSize 格式化文件大小
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
