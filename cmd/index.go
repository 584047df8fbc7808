package cmd

import (
	"context"
	"fmt"
	"os"

	"P3DrumMachine/cache"
	"P3DrumMachine/config"
	"P3DrumMachine/db"
	"P3DrumMachine/repository"
	"P3DrumMachine/storage"

	"github.com/spf13/cobra"
)

// openIndex connects the summary index selected by cfg.IndexBackend. The
// returned closer is nil when there is nothing to release.
func openIndex(ctx context.Context, cfg *config.Config, baseDir string) (storage.SummaryIndex, func() error, error) {
	switch cfg.IndexBackend {
	case config.IndexSQLite, config.IndexMySQL:
		if cfg.IndexBackend == config.IndexSQLite {
			// index.db 位于基础目录中，需先于 FileManager 创建
			if err := os.MkdirAll(baseDir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create %s: %w", baseDir, err)
			}
		}
		gdb, err := db.OpenGorm(cfg, baseDir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormSummaryRepository(gdb), func() error { return db.CloseGormDB(gdb) }, nil

	case config.IndexRedis:
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewSummaryCache(client, cache.DefaultKeyPrefix), client.Close, nil
	}
	return nil, nil, nil
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "会话摘要索引",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rescan every session file and replace the index content",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !fileManager.HasIndex() {
			return fmt.Errorf("no summary index configured (INDEX_BACKEND=%s)", cfg.IndexBackend)
		}
		n, err := fileManager.RebuildIndex(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d sessions (%s)\n", n, cfg.IndexBackend)
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which index backend is in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !fileManager.HasIndex() {
			fmt.Fprintf(out, "backend: %s (not connected, listing scans %s)\n", cfg.IndexBackend, fileManager.SessionsDir())
			return
		}
		fmt.Fprintf(out, "backend: %s\n", cfg.IndexBackend)
		switch cfg.IndexBackend {
		case config.IndexSQLite:
			fmt.Fprintf(out, "file:    %s\n", db.SQLitePath(fileManager.BaseDir()))
		case config.IndexMySQL:
			fmt.Fprintf(out, "mysql:   %s:%s/%s\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
		case config.IndexRedis:
			fmt.Fprintf(out, "redis:   %s db=%d\n", cfg.RedisAddr(), cfg.RedisDB)
		}
	},
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd, indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}
