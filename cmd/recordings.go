package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "录音管理",
}

var recordingsListCmd = &cobra.Command{
	Use:   "list <session-id>",
	Short: "List a session's recording files, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		files, err := fileManager.ListRecordings(id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintln(out, "no recordings")
			return nil
		}
		for _, f := range files {
			created := "unknown"
			if !f.CreatedAt.IsZero() {
				created = f.CreatedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(out, "%-20s  %10s  %s\n", created, formatSize(f.Size), f.Path)
		}
		return nil
	},
}

func init() {
	recordingsCmd.AddCommand(recordingsListCmd)
	rootCmd.AddCommand(recordingsCmd)
}
