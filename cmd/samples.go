package cmd

import (
	"fmt"
	"path/filepath"

	"P3DrumMachine/core/session"
	"P3DrumMachine/model"

	"github.com/spf13/cobra"
)

var (
	importRow    int
	importColumn int
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "采样管理",
}

var samplesImportCmd = &cobra.Command{
	Use:   "import <session-id> <audio-file>",
	Short: "Copy an audio file into a session and optionally assign it to a pad",
	Long: `把音频文件复制到会话的 Samples 目录。
同名文件已存在时会加上唯一前缀。指定 --row 和 --column 时同时分配到该打击垫，
会话在复制成功之后才保存。`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		assign := importRow >= 0 || importColumn >= 0
		if assign && (importRow < 0 || importColumn < 0) {
			return fmt.Errorf("--row and --column must be given together")
		}

		ctx := cmd.Context()
		m := session.NewManager(ctx, fileManager)
		if err := m.OpenSession(ctx, id); err != nil {
			return err
		}

		// 先确认打击垫存在，再复制文件
		var pad model.Pad
		if assign {
			var ok bool
			if pad, ok = m.CurrentSession().PadAt(importRow, importColumn); !ok {
				return fmt.Errorf("no pad at row %d column %d", importRow, importColumn)
			}
		}

		sample, err := m.ImportAudioFile(args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %s -> %s\n", sample.Name, sample.FileURL)

		if !assign {
			return nil
		}
		if err := m.AssignSample(sample, pad.ID); err != nil {
			return err
		}
		if err := m.SaveCurrentSession(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "assigned to pad (%d,%d)\n", importRow, importColumn)
		return nil
	},
}

var samplesRemoveCmd = &cobra.Command{
	Use:   "remove <session-id> <sample-file>",
	Short: "Clear every pad using a sample and delete the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		m := session.NewManager(ctx, fileManager)
		if err := m.OpenSession(ctx, id); err != nil {
			return err
		}

		// 可以传完整路径，也可以传 Samples/<session-id>/ 下的相对路径
		target, err := fileManager.SessionSamplePath(id, args[1])
		if err != nil {
			return err
		}
		cleared := 0
		for _, p := range m.CurrentSession().AssignedPads() {
			if url, err := filepath.Abs(p.Sample.FileURL); err != nil || url != target {
				continue
			}
			if err := m.ClearSample(p.ID); err != nil {
				return err
			}
			cleared++
		}
		if cleared > 0 {
			if err := m.SaveCurrentSession(ctx); err != nil {
				return err
			}
		}
		if err := fileManager.DeleteSessionSample(id, target); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%d pads cleared)\n", target, cleared)
		return nil
	},
}

func init() {
	samplesImportCmd.Flags().IntVar(&importRow, "row", -1, "pad row to assign the sample to")
	samplesImportCmd.Flags().IntVar(&importColumn, "column", -1, "pad column to assign the sample to")
	samplesCmd.AddCommand(samplesImportCmd, samplesRemoveCmd)
	rootCmd.AddCommand(samplesCmd)
}
