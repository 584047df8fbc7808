package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"P3DrumMachine/core/session"
	"P3DrumMachine/model"
	"P3DrumMachine/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	newName    string
	newBPM     float64
	newRows    int
	newColumns int

	exportFormat string
	exportOut    string
)

func parseSessionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return id, nil
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "会话管理",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recently modified first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := fileManager.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "no sessions")
			return nil
		}
		fmt.Fprintf(out, "%-36s  %-20s  %6s  %4s  %s\n", "ID", "MODIFIED", "BPM", "PADS", "NAME")
		for _, s := range list {
			fmt.Fprintf(out, "%-36s  %-20s  %6.1f  %4d  %s\n",
				s.ID, s.ModifiedAt.Local().Format(time.DateTime), s.BPM, s.AssignedPadsCount, s.Name)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's settings and pad grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		s, err := fileManager.LoadSession(cmd.Context(), id)
		if err != nil {
			return err
		}
		printSession(cmd, s)
		return nil
	},
}

func printSession(cmd *cobra.Command, s *model.Session) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", s.ID, s.Name)
	fmt.Fprintf(out, "bpm:      %.1f (1/16 = %s)\n", s.BPM, sixteenth(s.BPM))
	fmt.Fprintf(out, "grid:     %dx%d, %d assigned\n", s.Rows, s.Columns, len(s.AssignedPads()))
	fmt.Fprintf(out, "style:    %s, tint %s, brightness %.2f\n",
		s.VisualSettings.StylePreset, s.VisualSettings.TintColorHex, s.VisualSettings.Brightness)
	fmt.Fprintf(out, "created:  %s\n", s.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "modified: %s\n", s.ModifiedAt.Local().Format(time.DateTime))

	fmt.Fprintln(out)
	for r := 0; r < s.Rows; r++ {
		cells := make([]string, 0, s.Columns)
		for c := 0; c < s.Columns; c++ {
			p, _ := s.PadAt(r, c)
			mark := "[ ]"
			switch {
			case s.ActiveInstrumentPadID != nil && *s.ActiveInstrumentPadID == p.ID:
				mark = "[*]"
			case !p.IsEmpty():
				mark = "[x]"
			}
			cells = append(cells, mark)
		}
		fmt.Fprintln(out, strings.Join(cells, " "))
	}

	if assigned := s.AssignedPads(); len(assigned) > 0 {
		fmt.Fprintln(out)
		for _, p := range assigned {
			fmt.Fprintf(out, "(%d,%d) %-8s vol %.2f pan %+.2f  %s\n",
				p.Row, p.Column, p.Mode.DisplayName(), p.Volume, p.Pan, p.DisplayName())
		}
	}

	if len(s.Recordings) > 0 {
		fmt.Fprintln(out)
		for _, r := range s.Recordings {
			fmt.Fprintf(out, "rec %-20s %6.1fs  %s\n", r.Name, r.Duration, r.FileURL)
		}
	}
}

// sixteenth mirrors Manager.SixteenthNoteDuration for a stored BPM.
func sixteenth(bpm float64) time.Duration {
	return time.Duration(60.0 / bpm / 4 * float64(time.Second))
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create and save an empty session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m := session.NewManager(ctx, fileManager)
		s := m.NewSession(newName, newRows, newColumns)
		m.SetBPM(newBPM)
		if err := m.SaveCurrentSession(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.ID)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>...",
	Short: "Delete sessions with their samples and recordings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(args))
		for _, a := range args {
			id, err := parseSessionID(a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			if !fileManager.SessionExists(id) {
				return &storage.SessionNotFoundError{ID: id}
			}
			if err := fileManager.DeleteSession(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		return nil
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Write a session as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		data, err := fileManager.ExportSession(cmd.Context(), id, exportFormat)
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		return nil
	},
}

var sessionsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print session changes made by other processes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		events, err := fileManager.WatchSessions(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "watching %s\n", fileManager.SessionsDir())
		for ev := range events {
			if ev.Removed {
				fmt.Fprintf(out, "removed  %s\n", ev.ID)
				continue
			}
			s, err := fileManager.LoadSession(ctx, ev.ID)
			if err != nil {
				fmt.Fprintf(out, "invalid  %s: %v\n", ev.ID, err)
				continue
			}
			fmt.Fprintf(out, "updated  %s  %s (%.1f bpm)\n", ev.ID, s.Name, s.BPM)
		}
		return nil
	},
}

func init() {
	sessionsNewCmd.Flags().StringVar(&newName, "name", "", "session name (default \""+model.DefaultSessionName+"\")")
	sessionsNewCmd.Flags().Float64Var(&newBPM, "bpm", model.DefaultBPM, "tempo, clamped to 20-300")
	sessionsNewCmd.Flags().IntVar(&newRows, "rows", model.DefaultRows, "grid rows")
	sessionsNewCmd.Flags().IntVar(&newColumns, "columns", model.DefaultColumns, "grid columns")

	sessionsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", storage.FormatJSON, "json or yaml")
	sessionsExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsNewCmd,
		sessionsDeleteCmd, sessionsExportCmd, sessionsWatchCmd)
	rootCmd.AddCommand(sessionsCmd)
}
